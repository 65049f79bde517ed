// Package config loads a dossier job: a YAML file naming the template, the
// output, the generated sections, the glossary terms and the branding, with
// overrides from a .env file and the process environment.
//
// Precedence, lowest first: job file, .env, process environment, CLI flags
// (applied by the caller after Load).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cirdoc/internal/glossary"
	"cirdoc/internal/sections"
	"cirdoc/internal/textutil"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvLogLevel          = "CIRDOC_LOG_LEVEL"
	EnvHeadingLevel      = "CIRDOC_HEADING_LEVEL"
	EnvDefaultDefinition = "CIRDOC_DEFAULT_DEFINITION"
	EnvMaxTerms          = "CIRDOC_MAX_TERMS"
)

// DefaultStateOfTheArtTitle is the heading the article list is written under.
const DefaultStateOfTheArtTitle = "État de l'art"

// ErrInvalid wraps every validation problem reported by Validate.
var ErrInvalid = errors.New("invalid job")

// Job is one dossier build.
type Job struct {
	Template          string             `yaml:"template"`
	Output            string             `yaml:"output"`
	HeadingLevel      int                `yaml:"heading_level"`
	Sections          []Section          `yaml:"sections"`
	Articles          []sections.Article `yaml:"articles"`
	ArticlesTitle     string             `yaml:"articles_title"`
	Terms             []glossary.Entry   `yaml:"terms"`
	TermsFile         string             `yaml:"terms_file"`
	Acronyms          bool               `yaml:"acronyms"`
	MaxTerms          int                `yaml:"max_terms"`
	DefaultDefinition string             `yaml:"default_definition"`
	Branding          *Branding          `yaml:"branding"`
	Report            string             `yaml:"report"`
	Diff              string             `yaml:"diff"`
	LogLevel          string             `yaml:"log_level"`

	// dir is the directory of the job file; relative paths resolve here.
	dir string
}

// Section is a generated section: inline content or a file holding it.
type Section struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	File    string `yaml:"file"`
}

// Branding names the client identity stamped onto the template.
type Branding struct {
	Client      string `yaml:"client"`
	Year        int    `yaml:"year"`
	Logo        string `yaml:"logo"`
	KeepFooters bool   `yaml:"keep_footers"`
}

// Load reads a job file. Unknown keys are rejected. Relative paths in the
// job are resolved against the file's directory.
func Load(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}
	job, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	job.dir = filepath.Dir(abs)
	job.resolvePaths()
	return job, nil
}

// Parse decodes a job document without resolving paths.
func Parse(b []byte) (*Job, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	job := &Job{}
	if err := dec.Decode(job); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return job, nil
}

func (j *Job) resolvePaths() {
	j.Template = j.Path(j.Template)
	j.Output = j.Path(j.Output)
	j.TermsFile = j.Path(j.TermsFile)
	j.Report = j.Path(j.Report)
	j.Diff = j.Path(j.Diff)
	for i := range j.Sections {
		j.Sections[i].File = j.Path(j.Sections[i].File)
	}
	if j.Branding != nil {
		j.Branding.Logo = j.Path(j.Branding.Logo)
	}
}

// Path resolves p against the job file directory. Empty and absolute paths
// are returned as is.
func (j *Job) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || j.dir == "" {
		return p
	}
	return filepath.Join(j.dir, p)
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides job fields from the environment. lookup is normally
// os.LookupEnv.
func (j *Job) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		j.LogLevel = v
	}
	if v, ok := lookup(EnvDefaultDefinition); ok && v != "" {
		j.DefaultDefinition = v
	}
	if v, ok := lookup(EnvHeadingLevel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvHeadingLevel, v)
		}
		j.HeadingLevel = n
	}
	if v, ok := lookup(EnvMaxTerms); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvMaxTerms, v)
		}
		j.MaxTerms = n
	}
	return nil
}

// Level returns the heading level for appended sections.
func (j *Job) Level() int {
	if j.HeadingLevel == 0 {
		return sections.DefaultHeadingLevel
	}
	return j.HeadingLevel
}

// Policy returns the glossary policy of the job.
func (j *Job) Policy() glossary.Policy {
	return glossary.Policy{
		DefaultDefinition: j.DefaultDefinition,
		MaxTerms:          j.MaxTerms,
		Acronyms:          j.Acronyms,
	}
}

// Validate reports every problem in the job at once.
func (j *Job) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if j.Template == "" {
		add("template is required")
	}
	if j.Output == "" {
		add("output is required")
	}
	if j.Template != "" && j.Output != "" && filepath.Clean(j.Template) == filepath.Clean(j.Output) {
		add("output must differ from template")
	}
	if j.HeadingLevel < 0 || j.HeadingLevel > 9 {
		add("heading_level %d out of range 1..9", j.HeadingLevel)
	}
	if j.MaxTerms < 0 {
		add("max_terms must not be negative")
	}
	for i, s := range j.Sections {
		switch {
		case strings.TrimSpace(s.Title) == "":
			add("sections[%d]: title is required", i)
		case s.Content != "" && s.File != "":
			add("sections[%d] %q: content and file are exclusive", i, s.Title)
		}
	}
	if b := j.Branding; b != nil {
		if strings.TrimSpace(b.Client) == "" {
			add("branding.client is required")
		}
		if b.Year < 1000 || b.Year > 9999 {
			add("branding.year %d is not a four-digit year", b.Year)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(problems, "\n  - "))
}

// ResolveSections returns the sections to patch, reading file-backed content
// and appending the state-of-the-art section when articles are listed.
func (j *Job) ResolveSections() ([]sections.Section, error) {
	out := make([]sections.Section, 0, len(j.Sections)+1)
	for _, s := range j.Sections {
		content := s.Content
		if s.File != "" {
			b, err := os.ReadFile(s.File)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", s.Title, err)
			}
			content = string(b)
		}
		out = append(out, sections.Section{Title: s.Title, Content: textutil.SectionText([]byte(content))})
	}
	if len(j.Articles) > 0 {
		title := j.ArticlesTitle
		if title == "" {
			title = DefaultStateOfTheArtTitle
		}
		out = append(out, sections.Section{Title: title, Content: sections.StateOfTheArt(j.Articles)})
	}
	return out, nil
}

// ResolveTerms returns the inline terms followed by those of terms_file.
func (j *Job) ResolveTerms() ([]glossary.Entry, error) {
	out := append([]glossary.Entry(nil), j.Terms...)
	if j.TermsFile != "" {
		more, err := glossary.LoadFile(j.TermsFile)
		if err != nil {
			return nil, fmt.Errorf("terms file: %w", err)
		}
		out = append(out, more...)
	}
	return out, nil
}
