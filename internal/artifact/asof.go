package artifact

import (
	"context"
	"time"
)

// Asof metadata keys and formats. Some upstream datasets carry no explicit
// version at all (the building register is updated continuously); their
// sinks record when they were last refreshed and a pipeline decides
// staleness against a max-age window.
const (
	asofKey        = "as_of"
	asofFormatKey  = "as_of_date_format"
	asofDateFormat = "20060102150405"
)

// ReadAsof returns the recorded refresh time of an unversioned sink, or the
// zero time when none was ever recorded (forcing the first refresh).
func ReadAsof(ctx context.Context, f *File) (time.Time, error) {
	md, err := f.ReadMetadata(ctx)
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := md[asofKey].(string)
	if !ok {
		return time.Time{}, nil
	}
	t, err := time.Parse(asofDateFormat, raw)
	if err != nil {
		return time.Time{}, nil // unreadable stamp reads as "never refreshed"
	}
	return t, nil
}

// WriteAsofNow records the current time as the sink's refresh stamp.
func WriteAsofNow(ctx context.Context, f *File) error {
	return f.WriteMetadata(ctx, Metadata{
		asofKey:       time.Now().Format(asofDateFormat),
		asofFormatKey: asofDateFormat,
	})
}

// IsStale reports whether the sink's asof stamp is older than maxAge.
func IsStale(ctx context.Context, f *File, maxAge time.Duration) (bool, error) {
	asof, err := ReadAsof(ctx, f)
	if err != nil {
		return false, err
	}
	return time.Since(asof) >= maxAge, nil
}
