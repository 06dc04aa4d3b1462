package main

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *cli) device(ctx context.Context) error {
	r, err := c.resolver()
	if err != nil {
		return err
	}
	id, err := r.Resolve(ctx, userAgent())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(id)
}

func (c *cli) resetDevice(ctx context.Context) error {
	r, err := c.resolver()
	if err != nil {
		return err
	}
	if err := r.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Device ID cleared. The next login will be treated as a new device.")
	return nil
}
