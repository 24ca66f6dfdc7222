package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyPage        = "page"
	KeyInputPath   = "input_path"
	KeyOutputPath  = "output_path"
	KeyAsset       = "asset"
	KeyReference   = "reference"
	KeyPath        = "path"
	KeyDestination = "destination"
	KeyMode        = "mode"
	KeyCount       = "count"
	KeyCopied      = "copied"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Page(p string) slog.Attr          { return slog.String(KeyPage, p) }
func InputPath(p string) slog.Attr     { return slog.String(KeyInputPath, p) }
func OutputPath(p string) slog.Attr    { return slog.String(KeyOutputPath, p) }
func Asset(p string) slog.Attr         { return slog.String(KeyAsset, p) }
func Reference(r string) slog.Attr     { return slog.String(KeyReference, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Destination(p string) slog.Attr   { return slog.String(KeyDestination, p) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Copied(n int) slog.Attr           { return slog.Int(KeyCopied, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
