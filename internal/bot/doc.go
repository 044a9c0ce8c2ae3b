// Package bot is the Telegram front end for the pipeline.
//
// Handler decides what to do with one chat message: it ignores chats other
// than the configured group and messages without the trigger, maps the
// sender's username to a picker code, runs the pipeline, and returns the
// reply. Runner long-polls Telegram and feeds messages to the Handler one at
// a time.
package bot
