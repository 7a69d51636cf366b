package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/worktracker75-ui/datanav/internal/utils"
)

const transcriptVersion = 1

type transcriptFile struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Save writes the transcript to path as JSON using an atomic write.
func (c *Conversation) Save(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(transcriptFile{
		Version:   transcriptVersion,
		UpdatedAt: c.now(),
		Messages:  c.Messages(),
	})
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

// Load reads a transcript written by Save. A missing file yields an empty
// conversation.
func Load(path string) (*Conversation, error) {
	c := New()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var tf transcriptFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	if tf.Version != transcriptVersion {
		return nil, fmt.Errorf("transcript %s: unsupported version %d", path, tf.Version)
	}
	c.messages = tf.Messages
	return c, nil
}
