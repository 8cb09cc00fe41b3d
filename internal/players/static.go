package players

import "context"

// StaticDirectory serves a fixed player set. Used in development mode and
// tests where no identity service is running.
type StaticDirectory struct {
	names map[string]string
}

func NewStaticDirectory(names map[string]string) *StaticDirectory {
	return &StaticDirectory{names: names}
}

func (d *StaticDirectory) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := d.names[id]
	return ok, nil
}

func (d *StaticDirectory) Name(ctx context.Context, id string) (string, error) {
	return d.names[id], nil
}
