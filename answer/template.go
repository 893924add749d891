package answer

import (
	"fmt"
	"strings"
	"text/template"
)

// Tone selects the register of generated answers.
type Tone string

const (
	ToneFormal Tone = "formal"
	TonePlain  Tone = "plain"
)

// CitationStyle selects how answers refer to sections.
type CitationStyle string

const (
	// CitationBracketed puts section numbers in [brackets] after each point.
	CitationBracketed CitationStyle = "bracketed"
	// CitationInline names the section in the sentence itself.
	CitationInline CitationStyle = "inline"
	// CitationNone omits section references.
	CitationNone CitationStyle = "none"
)

const (
	DefaultTone          = TonePlain
	DefaultCitationStyle = CitationBracketed
	DefaultMaxTokens     = 400
	DefaultMaxBullets    = 5
)

// TemplateOptions parameterize the system instruction.
type TemplateOptions struct {
	Tone          Tone
	CitationStyle CitationStyle
	MaxTokens     int
	MaxBullets    int
}

// DefaultTemplateOptions returns the options used when none are given.
func DefaultTemplateOptions() TemplateOptions {
	return TemplateOptions{
		Tone:          DefaultTone,
		CitationStyle: DefaultCitationStyle,
		MaxTokens:     DefaultMaxTokens,
		MaxBullets:    DefaultMaxBullets,
	}
}

// Validate checks that every option holds a known value.
func (o TemplateOptions) Validate() error {
	switch o.Tone {
	case ToneFormal, TonePlain:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTone, o.Tone)
	}
	switch o.CitationStyle {
	case CitationBracketed, CitationInline, CitationNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCitationStyle, o.CitationStyle)
	}
	if o.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}
	if o.MaxBullets <= 0 {
		return ErrInvalidMaxBullets
	}
	return nil
}

const systemTemplate = `You are a knowledgeable assistant specializing in the {{.Document}}.
Provide clear, structured answers following these rules:

1. Start with a brief 1-2 sentence overview.
2. List the key duties, powers or requirements as bullet points.
3. Each point must:
   - Focus on one specific duty or power
{{- if eq .CitationStyle "bracketed"}}
   - Include the exact section number in [brackets]
{{- else if eq .CitationStyle "inline"}}
   - Name the section it comes from, e.g. "Under Section 12 (1), ..."
{{- end}}
{{- if eq .Tone "plain"}}
   - Explain in plain, practical language
   - Avoid legal jargon
{{- else}}
   - Use precise statutory language
   - Quote operative words where they matter
{{- end}}
4. Limit the answer to at most {{.MaxBullets}} points.
5. End with a note if there are additional provisions not covered.
6. Keep the whole answer under about {{.WordBudget}} words.

Answer only from the context below. If it does not cover the question, say so.

Current context from the {{.Document}}:
{{.Context}}`

var systemTmpl = template.Must(template.New("system").Parse(systemTemplate))

// Template renders the system instruction for one generation call.
type Template struct {
	opts     TemplateOptions
	document string
}

// NewTemplate creates a template for the named source document.
func NewTemplate(document string, opts TemplateOptions) (*Template, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(document) == "" {
		document = DefaultDocumentName
	}
	return &Template{opts: opts, document: document}, nil
}

// Options returns the template options.
func (t *Template) Options() TemplateOptions {
	return t.opts
}

// Render fills the template with grounding context.
func (t *Template) Render(context string) (string, error) {
	data := struct {
		TemplateOptions
		Document   string
		Context    string
		WordBudget int
	}{
		TemplateOptions: t.opts,
		Document:        t.document,
		Context:         context,
		// Roughly three words per four tokens
		WordBudget: t.opts.MaxTokens * 3 / 4,
	}

	var b strings.Builder
	if err := systemTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering system template: %w", err)
	}
	return b.String(), nil
}
