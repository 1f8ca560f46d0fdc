// Package file provides the file-based implementation of the
// driven.ConfigStore port: TOML settings stored under ~/.brief.
package file
