package openai

import "fmt"

const pairResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "question": {
      "type": "string"
    },
    "answer": {
      "type": "string"
    }
  },
  "required": ["question", "answer"],
  "additionalProperties": false
}`

const synthesisPromptTemplate = `You are given one support conversation thread. The thread starts with the
original message, followed by the replies in chronological order.

Extract the question being asked in the original message and synthesize a
single answer from the replies. Return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Distill the question down to the essence of what is being asked, removing extraneous information and formatting.
- Create one concise and correct answer from all the replies provided. Favor the earliest replies when they conflict.
- Do not include anyone's name in the question or the answer; rephrase to avoid names where the thread uses them.
- Clean up formatting artifacts (markup remnants, excessive whitespace) to improve readability.
- If the original message asks no discernible question (greetings, status updates, social chatter), return {"question": "", "answer": ""}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input:
Question:
How do we specify the naming of the SDKs through TypeSpec?

Responses:
1. You set the name field in the TypeSpec project config.
2. Also see the naming guide linked from the readme.

Output:
{
  "question": "How do we specify the naming of the SDKs through TypeSpec?",
  "answer": "Set the name field in the TypeSpec project configuration; the naming guide linked from the readme covers the details."
}

Example (no question present):
Input:
Question:
Happy Friday everyone!

Responses:
1. Same to you!

Output:
{
  "question": "",
  "answer": ""
}`

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(synthesisPromptTemplate, pairResponseSchema)
}
