// Package answer turns retrieved chunks into a generated, cited answer.
//
// One Template, selected by TemplateOptions, renders the system instruction
// for every answer. When retrieval reports no relevant context the Answerer
// returns a fixed fallback message instead of calling the generator.
package answer
