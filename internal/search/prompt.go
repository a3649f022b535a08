package search

// Instructions is the fixed preamble of every answer prompt.
const Instructions = `You are an expert at reading comprehension.
Only answer the question and ignore all information unrelated to the question.
Answer short and concisely, skipping over unnecessary information.
However, be aware that the information could be in multiple notes.
Put in all information you can find in the notes. Use a cold and professional tone.
If the information is not present in the context, say '` + NoInformation + `'
Using the following context, answer the question.`

// NoInformation is the phrase the model is told to use when the notes do not cover the question.
const NoInformation = "There is no information on this in the notes."

// BuildPrompt assembles instructions, context, and question into a single prompt.
// The question is included verbatim.
func BuildPrompt(context, question string) string {
	return Instructions + "\n\nContext:\n" + context + "\n\nQuestion:\n" + question
}
