package sections

import (
	"fmt"
	"strings"
)

// Article is a bibliographic record returned by the article search
// collaborator. Only selected articles are listed.
type Article struct {
	Title    string `yaml:"title" json:"title"`
	Year     string `yaml:"year" json:"year"`
	Authors  string `yaml:"authors" json:"authors"`
	URL      string `yaml:"url" json:"url"`
	Selected bool   `yaml:"selected" json:"selected"`
}

// NoArticles is the state-of-the-art text when nothing was selected.
const NoArticles = "Aucun article retenu."

// StateOfTheArt formats the selected articles as one reference per line:
// "- title (year) — authors — url".
func StateOfTheArt(articles []Article) string {
	var lines []string
	for _, a := range articles {
		if !a.Selected {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) — %s — %s", a.Title, a.Year, a.Authors, a.URL))
	}
	if len(lines) == 0 {
		return NoArticles
	}
	return strings.Join(lines, "\n")
}
