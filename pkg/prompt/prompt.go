// Package prompt renders the instruction template the language model answers
// from.
package prompt

import (
	"strings"
)

const (
	contextSlot  = "{context}"
	questionSlot = "{question}"
)

// medical is the fixed answering template. Its blank lines are part of the
// text the model sees.
const medical = `

use the following piece of information to answer the user's question.

If you don't know the answer, just say that you don't know, don't try to make up the answer.





Context: {context}

Question: {question}



Only return the helpful answer below and nothing else.

Helpful answer:

`

// Template is a prompt with {context} and {question} slots.
type Template struct {
	text string
}

// Default returns the medical answering template.
func Default() Template {
	return Template{text: medical}
}

// New returns a template over text.
func New(text string) Template {
	return Template{text: text}
}

// Text returns the raw template.
func (t Template) Text() string {
	return t.text
}

// Render substitutes both slots in a single pass, so slot markers appearing
// inside context or question are left as written.
func (t Template) Render(context, question string) string {
	r := strings.NewReplacer(contextSlot, context, questionSlot, question)
	return r.Replace(t.text)
}

// Stuff joins retrieved chunk texts into a single context block in
// retrieval order.
func Stuff(texts []string) string {
	return strings.Join(texts, "\n\n")
}
