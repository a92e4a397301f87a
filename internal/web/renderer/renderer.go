package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/niklasfasching/go-org/org"

	"arbor/internal/media"
	"arbor/internal/models"
)

func NewHTMLWriterWithChroma() *org.HTMLWriter {
	w := org.NewHTMLWriter()
	w.HighlightCodeBlock = func(source, lang string, inline bool, params map[string]string) string {
		var w bytes.Buffer
		lexer := lexers.Get(lang)
		if lexer == nil {
			lexer = lexers.Fallback
		}
		iterator, err := lexer.Tokenise(nil, source)
		if err != nil {
			return source
		}
		formatter := chromahtml.New(chromahtml.WithClasses(true))
		if err := formatter.Format(&w, styles.Get("friendly"), iterator); err != nil {
			return source
		}
		return w.String()
	}
	return w
}

// Markup converts org source to HTML with syntax-highlighted code blocks.
func Markup(source string) (template.HTML, error) {
	out, err := org.New().Parse(strings.NewReader(source), "").Write(NewHTMLWriterWithChroma())
	if err != nil {
		return "", fmt.Errorf("error converting markup content to HTML: %w", err)
	}
	return template.HTML(out), nil
}

// Renderer turns content blocks into HTML.
type Renderer struct {
	Media         *media.Repository
	UploadsPrefix string
}

// New creates a renderer serving media files below uploadsPrefix.
func New(mediaRepo *media.Repository, uploadsPrefix string) *Renderer {
	return &Renderer{Media: mediaRepo, UploadsPrefix: uploadsPrefix}
}

// RenderContent renders one block. Application blocks are rendered from
// appOutput, which the page controller fills per request.
func (r *Renderer) RenderContent(c *models.Content, appOutput map[int]template.HTML) (template.HTML, error) {
	switch c.Kind {
	case models.ContentRichText:
		return template.HTML(c.Text), nil

	case models.ContentMarkup:
		return Markup(c.Text)

	case models.ContentMediaFile:
		if c.MediaFileID == nil {
			return "", nil
		}
		f, err := r.Media.ByID(*c.MediaFileID)
		if err != nil {
			return "", fmt.Errorf("error loading media file %d: %w", *c.MediaFileID, err)
		}
		return r.renderMediaFile(f), nil

	case models.ContentApplication:
		return appOutput[c.ID], nil
	}

	return "", fmt.Errorf("unknown content kind %q", c.Kind)
}

func (r *Renderer) renderMediaFile(f *models.MediaFile) template.HTML {
	src := r.UploadsPrefix + f.StoredName
	name := template.HTMLEscapeString(f.Filename)
	if strings.HasPrefix(f.MimeType, "image/") {
		return template.HTML(fmt.Sprintf(`<figure><img src="%s" alt="%s"></figure>`, src, name))
	}
	return template.HTML(fmt.Sprintf(`<a class="mediafile" href="%s">%s</a>`, src, name))
}
