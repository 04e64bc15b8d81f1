package pipeline

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
)

// Report collects the human readable messages produced by a clustering run, in
// the order the stages ran.
type Report struct {
	Messages []string `json:"messages"`
}

func (r *Report) add(format string, args ...interface{}) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// Markdown renders the report as a bulleted markdown document
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("## Clustering run\n\n")
	if len(r.Messages) == 0 {
		b.WriteString("_No messages._\n")
		return b.String()
	}
	for _, m := range r.Messages {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func (r Report) HTML() []byte {
	return markdown.ToHTML([]byte(r.Markdown()), nil, nil)
}
