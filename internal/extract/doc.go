// Package extract turns fetched HTML payloads into title, visible text,
// and outbound links for the frontier.
package extract
