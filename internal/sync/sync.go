package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/memorank/memorank/internal/gitsource"
	"github.com/memorank/memorank/internal/parser"
	"github.com/memorank/memorank/internal/storage"
)

// RunSync iterates over all configured deck sources and reconciles the
// card table against the decks found on disk.
func RunSync(db *storage.DB, reposDir string) error {
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no deck sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "kind", source.Kind, "path", source.Path)

		sourceToReconcile := source

		switch source.Kind {
		case "local":
			reconcileLocalSource(db, &sourceToReconcile)
		case "git":
			localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot determine local path for git repo", "url", source.Path, "error", err)
				continue
			}

			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("failed to sync git repo", "url", source.Path, "error", err)
				continue
			}

			sourceToReconcile.Path = localRepoPath
			reconcileLocalSource(db, &sourceToReconcile)
		default:
			slog.Warn("unknown source kind, skipping", "kind", source.Kind, "path", source.Path)
		}
	}
	return nil
}

func reconcileLocalSource(db *storage.DB, source *storage.Source) {
	var parsedCards, insertedCards int
	var syncErrors []error
	foundFingerprints := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			syncErrors = append(syncErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, card := range fileCards {
			if err := card.Validate(); err != nil {
				syncErrors = append(syncErrors, fmt.Errorf("invalid card in %s: %w", path, err))
				continue
			}

			fingerprint := card.Fingerprint()
			parsedCards++
			foundFingerprints[fingerprint] = true

			existing, findErr := db.FindCardByFingerprint(fingerprint)
			if findErr != nil {
				syncErrors = append(syncErrors, fmt.Errorf("db check for %s: %w", fingerprint, findErr))
				continue
			}
			if existing == nil {
				slog.Info("new card found", "fingerprint", fingerprint)
				insertedCards++
				if _, insertErr := db.InsertCard(card, source.ID); insertErr != nil {
					syncErrors = append(syncErrors, fmt.Errorf("db insert for %s: %w", fingerprint, insertErr))
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("failed to walk source directory", "path", source.Path, "error", walkErr)
		return
	}

	refs, err := db.GetCardRefsBySource(source.ID)
	if err != nil {
		slog.Error("failed to get cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphanedCards int
	for _, ref := range refs {
		if foundFingerprints[ref.Fingerprint] {
			continue
		}
		slog.Info("orphaned card, deleting", "fingerprint", ref.Fingerprint)
		orphanedCards++
		if err := db.DeleteCard(ref.ID); err != nil {
			slog.Warn("failed to delete orphaned card", "fingerprint", ref.Fingerprint, "error", err)
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_cards", parsedCards,
		"inserted", insertedCards,
		"orphaned_deleted", orphanedCards,
		"errors", len(syncErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-like syntax: git@host:user/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
