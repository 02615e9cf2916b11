// Package tts abstracts narration speech synthesis behind a small
// Synthesizer interface.
//
// Two engines ship: CommandEngine shells out to any CLI synthesizer through
// a configurable argv template, and ElevenLabs talks to the hosted speech
// API. Both write to a caller-chosen output path so the cache layer controls
// atomicity; engines never publish into the cache themselves.
package tts
