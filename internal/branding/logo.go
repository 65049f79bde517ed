package branding

import (
	"bytes"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"cirdoc/internal/container"
	"cirdoc/internal/ooxml"
	"cirdoc/internal/wordml"
)

// EMUs per inch. Drawing extents are expressed in English Metric Units.
const emuPerInch = 914400

// DefaultLogoWidth is the logo width when none is given: 2 inches.
const DefaultLogoWidth = 2 * emuPerInch

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// image is a decoded logo ready to be embedded.
type image struct {
	data        []byte
	ext         string
	contentType string
	cx, cy      int64
}

func newImage(data []byte, ext string, width int64) (*image, error) {
	cfg, format, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("branding: decode logo: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("branding: logo has no size")
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || ext == "jpg" {
		ext = format
	}
	ct, ok := contentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("branding: unsupported logo format %q", ext)
	}
	if width <= 0 {
		width = DefaultLogoWidth
	}
	return &image{
		data:        data,
		ext:         ext,
		contentType: ct,
		cx:          width,
		cy:          width * int64(cfg.Height) / int64(cfg.Width),
	}, nil
}

func (im *image) partName() string { return "word/media/logo." + im.ext }

// placeLogo swaps every paragraph containing LOGO for a centered paragraph
// holding the image, adding the image relationship to the owning part.
func placeLogo(pkg *container.Package, p *part, paras []*ooxml.Element, im *image) (int, error) {
	var targets []*ooxml.Element
	for _, para := range paras {
		if strings.Contains(wordml.Text(para), TokenLogo) {
			targets = append(targets, para)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	relsName := container.RelsPartFor(p.name)
	rels, _ := pkg.Part(relsName)
	target := relativeTarget(p.name, im.partName())
	rels, rid := container.EnsureRelationship(rels, container.RelTypeImage, target)
	pkg.Set(relsName, rels)

	next := maxDocPrID(p.doc.Root) + 1
	for _, para := range targets {
		wordml.SetText(para, "")
		para.Append(ooxml.El(wordml.TagR, im.drawing(rid, next)))
		center(para)
		next++
	}
	return len(targets), nil
}

// relativeTarget expresses part as a relationship target from source.
func relativeTarget(source, partName string) string {
	dir := source[:strings.LastIndex(source, "/")+1]
	if strings.HasPrefix(partName, dir) {
		return strings.TrimPrefix(partName, dir)
	}
	return "/" + partName
}

func maxDocPrID(root *ooxml.Element) int {
	maxID := 0
	for _, d := range root.Descendants(ooxml.N(ooxml.NSWordDrawing, "docPr")) {
		if n, err := strconv.Atoi(d.AttrOr(ooxml.N("", "id"), "")); err == nil && n > maxID {
			maxID = n
		}
	}
	return maxID
}

func wp(local string) ooxml.Name { return ooxml.N(ooxml.NSWordDrawing, local) }
func a(local string) ooxml.Name { return ooxml.N(ooxml.NSDrawing, local) }
func pic(local string) ooxml.Name { return ooxml.N(ooxml.NSPicture, local) }
func attr(local string) ooxml.Name { return ooxml.N("", local) }

// drawing builds the inline picture markup referencing relationship rid.
func (im *image) drawing(rid string, docPrID int) *ooxml.Element {
	cx, cy := strconv.FormatInt(im.cx, 10), strconv.FormatInt(im.cy, 10)
	name := "Logo " + strconv.Itoa(docPrID)
	return ooxml.El(ooxml.W("drawing"),
		ooxml.El(wp("inline"),
			ooxml.El(wp("extent")).With(attr("cx"), cx).With(attr("cy"), cy),
			ooxml.El(wp("docPr")).With(attr("id"), strconv.Itoa(docPrID)).With(attr("name"), name),
			ooxml.El(wp("cNvGraphicFramePr"),
				ooxml.El(a("graphicFrameLocks")).With(attr("noChangeAspect"), "1"),
			),
			ooxml.El(a("graphic"),
				ooxml.El(a("graphicData"),
					ooxml.El(pic("pic"),
						ooxml.El(pic("nvPicPr"),
							ooxml.El(pic("cNvPr")).With(attr("id"), "0").With(attr("name"), "logo."+im.ext),
							ooxml.El(pic("cNvPicPr")),
						),
						ooxml.El(pic("blipFill"),
							ooxml.El(a("blip")).With(ooxml.R("embed"), rid),
							ooxml.El(a("stretch"), ooxml.El(a("fillRect"))),
						),
						ooxml.El(pic("spPr"),
							ooxml.El(a("xfrm"),
								ooxml.El(a("off")).With(attr("x"), "0").With(attr("y"), "0"),
								ooxml.El(a("ext")).With(attr("cx"), cx).With(attr("cy"), cy),
							),
							ooxml.El(a("prstGeom"), ooxml.El(a("avLst"))).With(attr("prst"), "rect"),
						),
					),
				).With(attr("uri"), ooxml.NSPicture),
			),
		).With(attr("distT"), "0").With(attr("distB"), "0").With(attr("distL"), "0").With(attr("distR"), "0"),
	)
}
