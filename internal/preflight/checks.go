package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"aotw/internal/ledger"
)

// Pinger proves catalog credentials work.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AccessChecker proves the publish repository is reachable.
type AccessChecker interface {
	CheckAccess(ctx context.Context) error
}

// optionalColumns are reported when absent; the pipeline skips them silently.
var optionalColumns = []string{
	ledger.ColumnArtist,
	ledger.ColumnAlbum,
	ledger.ColumnYear,
	ledger.ColumnAlbumID,
	ledger.ColumnAlbumURL,
	ledger.ColumnArtworkURL,
	ledger.ColumnAppleMusic,
	ledger.ColumnLabel,
	ledger.ColumnGenres,
	ledger.ColumnTotalTracks,
	ledger.ColumnPicker,
}

// CheckLedger connects to the ledger and resolves its header.
func CheckLedger(ctx context.Context, opener ledger.Opener, ref ledger.Ref) Result {
	const name = "Ledger"

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sheet, err := opener.Open(checkCtx, ref)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	l, err := ledger.Open(checkCtx, sheet)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}

	var missing []string
	for _, column := range optionalColumns {
		if !l.Header().Columns.Has(column) {
			missing = append(missing, column)
		}
	}
	detail := fmt.Sprintf("%s: header row %d, %d picks", ref.Tab, l.Header().Row, len(l.Rows()))
	if len(missing) > 0 {
		detail += fmt.Sprintf(" (missing columns: %s)", strings.Join(missing, ", "))
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckCatalog verifies the catalog credentials.
func CheckCatalog(ctx context.Context, catalog Pinger) Result {
	const name = "Spotify"
	if catalog == nil {
		return Result{Name: name, Detail: "client id and secret missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := catalog.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "token obtained"}
}

// CheckPublish verifies the publish repository is visible to the token.
func CheckPublish(ctx context.Context, repo AccessChecker, label string) Result {
	const name = "Publish target"
	if repo == nil {
		return Result{Name: name, Detail: "token, owner, or repo missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := repo.CheckAccess(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: label + " reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
