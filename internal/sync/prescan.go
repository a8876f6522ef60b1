package sync

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/schaermu/sops-shell/internal/directive"
)

// hasComments reports whether one of the first maxLines lines of the file is
// comment-style. Files without comments cannot hold directives.
func hasComments(path string, maxLines int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	r := bufio.NewReader(f)
	for i := 0; i < maxLines; i++ {
		line, err := r.ReadString('\n')
		if line != "" && directive.IsComment(line) {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, nil
}
