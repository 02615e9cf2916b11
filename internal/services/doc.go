// Package services defines the error taxonomy shared by the external
// collaborator clients (synthesizer, renderer, muxer, source resolver) and
// the build orchestrator that classifies their failures.
package services
