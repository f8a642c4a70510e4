// Package askdir encapsulates all path knowledge for the .nbask/ project
// directory. It provides a Dir value object with accessors for the config,
// the local secrets file, and rendered answer pages.
package askdir

import (
	"os"
	"path/filepath"
)

// DefaultName is the directory name looked up in the working directory.
const DefaultName = ".nbask"

// Dir is a value object that resolves paths within a .nbask/ directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Root returns the absolute path to the .nbask/ directory.
func (d Dir) Root() string { return d.root }

// Exists reports whether the root exists and is a directory.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)
	return err == nil && info.IsDir()
}

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// LocalDir returns the path to the local (gitignored) runtime directory.
func (d Dir) LocalDir() string { return filepath.Join(d.root, "local") }

// SecretsPath returns the path to the dotenv secrets file inside local/.
func (d Dir) SecretsPath() string { return filepath.Join(d.root, "local", "secrets.env") }

// AnswersDir returns the directory rendered answer pages are written to.
func (d Dir) AnswersDir() string { return filepath.Join(d.root, "local", "answers") }

// AnswerPath returns the page path for an answer to cellID.
func (d Dir) AnswerPath(cellID string) string {
	name := cellID
	if name == "" {
		name = "answer"
	}
	return filepath.Join(d.AnswersDir(), filepath.Base(name)+".html")
}

// GitignorePath returns the path to the .gitignore file inside .nbask/.
func (d Dir) GitignorePath() string { return filepath.Join(d.root, ".gitignore") }
