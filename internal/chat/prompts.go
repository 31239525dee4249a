package chat

import (
	"fmt"

	"coursewell/internal/lesson"
)

const contentPromptTemplate = "You are a friendly and engaging tutor. Your task is to teach the following " +
	"information to a student. Your goal is to be comprehensive and ensure no details are lost. Explain the " +
	"provided text clearly, including all examples and specific terms mentioned. After explaining the content, " +
	"ask a simple question to prompt the user to continue, like 'Does that make sense?' or 'Shall we move on?'." +
	"\n\nHere is the text to explain:\n---\n%s\n---"

const mediaImagePromptTemplate = "An image with the description '%s' has just been shown. Briefly call the " +
	"student's attention to it and ask if they are ready to continue."

const mediaAudioPromptTemplate = "An audio clip with the description '%s' is available to play. Briefly " +
	"encourage the student to listen to it and ask if they are ready to continue when they're done."

const questionPromptTemplate = "Okay, time for a quick question to check your understanding: %s"

func contentPrompt(chunk string) string {
	return fmt.Sprintf(contentPromptTemplate, chunk)
}

func mediaPrompt(mediaType lesson.MediaType, altText string) string {
	if mediaType == lesson.MediaAudio {
		return fmt.Sprintf(mediaAudioPromptTemplate, altText)
	}
	return fmt.Sprintf(mediaImagePromptTemplate, altText)
}

func questionPrompt(question string) string {
	return fmt.Sprintf(questionPromptTemplate, question)
}

func intentPrompt(userInput string, mediaDescriptions []string) string {
	return fmt.Sprintf("You are an intent classification agent. Your task is to analyze a user's input during "+
		"a lesson and determine their intent. The user's input is: '%s'. The available media descriptions in "+
		"this lesson are: %v. You MUST respond with a single, specific JSON object. Choose ONE of the following "+
		"intents:\n\n"+
		"1.  If the user is asking a general question about the lesson content, respond with:\n"+
		"    {\"intent\": \"QNA\", \"query\": \"the user's original question\"}\n\n"+
		"2.  If the user is asking to see a specific piece of media again AND their request matches one of the "+
		"available media descriptions, respond with:\n"+
		"    {\"intent\": \"MEDIA_REQUEST\", \"alt_text\": \"the matching media description from the list\"}\n\n"+
		"3.  If the user's request is unclear or doesn't fit the above, default to a general question:\n"+
		"    {\"intent\": \"QNA\", \"query\": \"the user's original question\"}\n\n"+
		"User Input: '%s'",
		userInput, mediaDescriptions, userInput)
}
