// Package publish makes the rendered report externally visible.
package publish

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/account-tracker/internal/logging"
)

// Publisher takes the rendered artifact and makes it externally visible.
// asOf is the series' last date, so publication metadata stays reproducible
// for a given series.
type Publisher interface {
	Publish(ctx context.Context, artifact []byte, asOf time.Time) error
}

// FilePublisher writes the artifact to a single path. Used when no git
// repository is configured.
type FilePublisher struct {
	Path string
}

// Publish writes the artifact to the configured path.
func (p *FilePublisher) Publish(ctx context.Context, artifact []byte, asOf time.Time) error {
	if err := os.WriteFile(p.Path, artifact, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	logging.FromContext(ctx).Info().Str("path", p.Path).Msg("artifact written")
	return nil
}

// GitPublisher writes the artifact into a git working tree and commits and
// pushes it.
type GitPublisher struct {
	RepoPath     string
	ArtifactName string
	Branch       string // empty means the current branch
}

// Publish writes, commits and pushes the artifact. The commit message is
// derived from the series' last date, not the wall clock.
func (p *GitPublisher) Publish(ctx context.Context, artifact []byte, asOf time.Time) error {
	logger := logging.FromContext(ctx)

	path := filepath.Join(p.RepoPath, p.ArtifactName)
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	message := fmt.Sprintf("Daily chart update %s", asOf.Format("2006-01-02"))

	if err := p.git(ctx, "add", p.ArtifactName); err != nil {
		return err
	}
	if out, err := p.gitOutput(ctx, "commit", "-m", message); err != nil {
		// An unchanged artifact produces an empty commit attempt; the
		// report is already published in that case. Any other commit
		// failure is real.
		if strings.Contains(string(out), "nothing to commit") {
			logger.Info().Str("artifact", p.ArtifactName).Msg("nothing to commit, artifact unchanged")
			return nil
		}
		return fmt.Errorf("git commit failed: %w: %s", err, out)
	}

	pushArgs := []string{"push"}
	if p.Branch != "" {
		pushArgs = append(pushArgs, "origin", p.Branch)
	}
	if err := p.git(ctx, pushArgs...); err != nil {
		return err
	}

	logger.Info().Str("artifact", p.ArtifactName).Str("commit", message).Msg("artifact published")
	return nil
}

// git runs one git subcommand inside the working tree.
func (p *GitPublisher) git(ctx context.Context, args ...string) error {
	if out, err := p.gitOutput(ctx, args...); err != nil {
		return fmt.Errorf("git %s failed: %w: %s", args[0], err, out)
	}
	return nil
}

// gitOutput runs one git subcommand and returns its combined output so the
// caller can inspect it on failure.
func (p *GitPublisher) gitOutput(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.RepoPath
	return cmd.CombinedOutput()
}
