package generator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/ldmemory/internal/environment"
	"github.com/retroenv/ldmemory/internal/memory"
	"github.com/retroenv/ldmemory/internal/options"
	"github.com/retroenv/ldmemory/internal/section"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func lookupMap(values map[string]string) environment.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestNew(t *testing.T) {
	g := New(log.NewTestLogger(t), lookupMap(nil))

	assert.NotNil(t, g)
	assert.NotNil(t, g.logger)
	assert.NotNil(t, g.lookup)
}

func TestExecute(t *testing.T) {
	g := New(log.NewTestLogger(t), lookupMap(nil))
	opts := options.Program{
		Parameters: options.Parameters{
			Sections: []string{"FLASH (rx):0:0x10000:0x1000", "RAM (rwx):0x20000000:64K"},
			Includes: []string{"link.x"},
		},
	}

	var stdout bytes.Buffer
	err := g.Execute(context.Background(), opts, &stdout)
	assert.NoError(t, err)

	want := "MEMORY\n{\n" +
		"    FLASH (rx): ORIGIN = 0x1000, LENGTH = 0xF000\n" +
		"    RAM (rwx): ORIGIN = 0x20000000, LENGTH = 0x10000\n" +
		"}\n" +
		"INCLUDE link.x\n"
	assert.Equal(t, want, stdout.String())
}

func TestExecuteEnvironment(t *testing.T) {
	lookup := lookupMap(map[string]string{
		"LDMEMORY_OFFSET":   "0x4000",
		"LDMEMORY_PAGESIZE": "2K",
		"LDMEMORY_SLOT":     "1",
	})
	g := New(log.NewTestLogger(t), lookup)
	opts := options.Program{
		Parameters: options.Parameters{
			Sections: []string{"FLASH:0x08000000:256K", "RAM:0x20000000:64K"},
		},
		Environment: options.Environment{Section: "FLASH", Prefix: environment.DefaultPrefix},
	}

	var stdout bytes.Buffer
	assert.NoError(t, g.Execute(context.Background(), opts, &stdout))

	want := "MEMORY\n{\n" +
		"    FLASH : ORIGIN = 0x8022000, LENGTH = 0x1E000\n" +
		"    RAM : ORIGIN = 0x20000000, LENGTH = 0x10000\n" +
		"}\n"
	assert.Equal(t, want, stdout.String())
}

func TestExecuteOutputFile(t *testing.T) {
	lookup := lookupMap(map[string]string{
		"CARGO":     "cargo",
		"OUT_DIR":   "/tmp/out",
		"BOOT_SLOT": "0",
	})
	g := New(log.NewTestLogger(t), lookup)
	output := filepath.Join(t.TempDir(), "memory.x")
	opts := options.Program{
		Parameters: options.Parameters{
			Sections: []string{"FLASH:0:128K"},
			Output:   output,
		},
		Environment: options.Environment{Section: "FLASH", Prefix: "BOOT"},
	}

	var stdout bytes.Buffer
	assert.NoError(t, g.Execute(context.Background(), opts, &stdout))

	data, err := os.ReadFile(output)
	assert.NoError(t, err)
	assert.Equal(t, "MEMORY\n{\n    FLASH : ORIGIN = 0x0, LENGTH = 0x10000\n}\n", string(data))

	want := "cargo:rerun-if-env-changed=BOOT_OFFSET\n" +
		"cargo:rerun-if-env-changed=BOOT_NUM_SLOTS\n" +
		"cargo:rerun-if-env-changed=BOOT_SLOT\n" +
		"cargo:rerun-if-env-changed=BOOT_SLOT_OFFSET\n" +
		"cargo:rerun-if-env-changed=BOOT_PAGESIZE\n"
	assert.Equal(t, want, stdout.String())
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name     string
		sections []string
		env      string
		lookup   map[string]string
		wantErr  error
	}{
		{
			name:     "invalid section",
			sections: []string{"RAM:0:64K", "FLASH:0"},
			wantErr:  section.ErrInvalidSpec,
		},
		{
			name:     "offset exceeds size",
			sections: []string{"RAM:0:64K", "FLASH:0:1K:2K"},
			wantErr:  memory.ErrInvalidOffset,
		},
		{
			name:     "unknown environment section",
			sections: []string{"RAM:0:64K"},
			env:      "FLASH",
			wantErr:  ErrUnknownSection,
		},
		{
			name:     "slot too small",
			sections: []string{"FLASH:0x100:0x100"},
			env:      "FLASH",
			lookup:   map[string]string{"LDMEMORY_PAGESIZE": "4K", "LDMEMORY_SLOT": "0"},
			wantErr:  memory.ErrRegionTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(log.NewTestLogger(t), lookupMap(tt.lookup))
			output := filepath.Join(t.TempDir(), "memory.x")
			opts := options.Program{
				Parameters: options.Parameters{
					Sections: tt.sections,
					Output:   output,
				},
				Environment: options.Environment{Section: tt.env, Prefix: environment.DefaultPrefix},
			}

			var stdout bytes.Buffer
			err := g.Execute(context.Background(), opts, &stdout)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, 0, stdout.Len())

			_, err = os.Stat(output)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestExecuteCancelled(t *testing.T) {
	g := New(log.NewTestLogger(t), lookupMap(nil))
	opts := options.Program{
		Parameters: options.Parameters{Sections: []string{"RAM:0:64K"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := g.Execute(ctx, opts, &stdout)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, stdout.Len())
}

func TestLayoutDuplicates(t *testing.T) {
	g := New(log.NewTestLogger(t), lookupMap(nil))
	opts := options.Program{
		Parameters: options.Parameters{Sections: []string{"RAM:0:1K", "RAM:1K:1K"}},
	}

	layout, err := g.Layout(opts)
	assert.NoError(t, err)
	assert.Equal(t, 2, layout.Len())
	assert.Equal(t, []string{"RAM"}, layout.DuplicateNames())
}

func TestLayoutEnvironmentFirstMatchOnly(t *testing.T) {
	lookup := lookupMap(map[string]string{"LDMEMORY_SLOT": "1"})
	g := New(log.NewTestLogger(t), lookup)
	opts := options.Program{
		Parameters: options.Parameters{
			Sections: []string{"FLASH:0:128K", "FLASH:0:128K"},
		},
		Environment: options.Environment{Section: "FLASH", Prefix: environment.DefaultPrefix},
	}

	layout, err := g.Layout(opts)
	assert.NoError(t, err)

	regions := layout.Regions()
	assert.Equal(t, 2, len(regions))
	assert.Equal(t, uint64(0x10000), regions[0].Origin())
	assert.Equal(t, uint64(0x10000), regions[0].Length())
	assert.Equal(t, uint64(0), regions[1].Origin())
	assert.Equal(t, uint64(0x20000), regions[1].Length())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed") //nolint:err113 // test error
}

func TestExecuteConsoleWriteFailure(t *testing.T) {
	lookup := lookupMap(map[string]string{
		"CARGO":   "cargo",
		"OUT_DIR": "/tmp/out",
	})
	g := New(log.NewTestLogger(t), lookup)
	output := filepath.Join(t.TempDir(), "memory.x")
	opts := options.Program{
		Parameters: options.Parameters{
			Sections: []string{"FLASH:0:128K"},
			Output:   output,
		},
		Environment: options.Environment{Section: "FLASH", Prefix: environment.DefaultPrefix},
	}

	err := g.Execute(context.Background(), opts, failingWriter{})
	assert.ErrorContains(t, err, "write failed")

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}
