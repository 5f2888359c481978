package cluster

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/h3ow3d/whacdamole/internal/log"
	"github.com/h3ow3d/whacdamole/internal/workdir"
)

// EnsureToken returns the cluster bootstrap token for the project,
// generating and persisting one in the work directory on first use so
// agents can rejoin the same server across restarts.
func EnsureToken(dir workdir.Dir) (string, error) {
	path := dir.TokenFile()

	if data, err := os.ReadFile(path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			log.Skip("Bootstrap token already exists")
			return token, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate bootstrap token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write bootstrap token: %w", err)
	}

	log.Okf("Bootstrap token generated at %s", path)
	return token, nil
}
