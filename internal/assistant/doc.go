// Package assistant talks to the remote Assistants v2 API.
//
// The Client interface covers exactly the seven remote operations the search
// pipeline needs: resolving an assistant, creating a thread, posting the
// user's message, starting and inspecting a run, submitting tool outputs and
// listing the thread's messages. OpenAIClient implements it on top of
// github.com/openai/openai-go with SDK retries disabled, and BreakerClient
// wraps any Client so that a dead remote fails fast instead of tying up
// request goroutines.
//
// Errors returned by a Client fall into two classes. A *RemoteError means the
// API answered with an error object; anything else is a transport failure.
package assistant
