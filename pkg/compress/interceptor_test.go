package compress_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formmanager/pkg/compress"
	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/loop"
)

func echoCompressor() compress.Compressor {
	return compress.CompressorFunc(func(_ context.Context, file form.File, _ compress.Options) (form.File, error) {
		return form.File{Name: file.Name, ContentType: "image/jpeg", Data: []byte("small-" + file.Name)}, nil
	})
}

func imageField(name string) form.Field {
	return form.Field{
		Key:    "control-1",
		Name:   "photo",
		Type:   form.TypeFile,
		Accept: "image/png,image/jpeg",
		Files:  []form.File{{Name: name, Data: []byte("original-" + name)}},
	}
}

func TestInterceptor_RecordsCompressedDataURL(t *testing.T) {
	store := compress.NewStore()
	i := compress.NewInterceptor(store,
		compress.WithCompressor(echoCompressor()),
		compress.WithScheduler(loop.Inline{}),
	)

	i.Handle(context.Background(), imageField("cat.png"))

	got, ok := store.Lookup("control-1")
	require.True(t, ok)
	assert.Equal(t, compress.DataURL(form.File{ContentType: "image/jpeg", Data: []byte("small-cat.png")}), got)
}

func TestInterceptor_IgnoresNonImageInputs(t *testing.T) {
	store := compress.NewStore()
	called := false
	i := compress.NewInterceptor(store,
		compress.WithScheduler(loop.Inline{}),
		compress.WithCompressor(compress.CompressorFunc(func(context.Context, form.File, compress.Options) (form.File, error) {
			called = true
			return form.File{}, nil
		})),
	)

	field := imageField("doc.pdf")
	field.Accept = "application/pdf"
	i.Handle(context.Background(), field)

	assert.False(t, called)
	assert.Equal(t, 0, store.Len())
}

func TestInterceptor_FailureLogsWarningAndLeavesNoRecord(t *testing.T) {
	var logs bytes.Buffer
	store := compress.NewStore()
	fail := false
	i := compress.NewInterceptor(store,
		compress.WithScheduler(loop.Inline{}),
		compress.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		compress.WithCompressor(compress.CompressorFunc(func(_ context.Context, file form.File, _ compress.Options) (form.File, error) {
			if fail {
				return form.File{}, errors.New("decoder exploded")
			}
			return form.File{ContentType: "image/jpeg", Data: []byte("ok")}, nil
		})),
	)

	i.Handle(context.Background(), imageField("first.png"))
	require.Equal(t, 1, store.Len())

	fail = true
	i.Handle(context.Background(), imageField("second.png"))

	assert.Equal(t, 0, store.Len())
	assert.True(t, strings.Contains(logs.String(), "level=WARN"))
	assert.True(t, strings.Contains(logs.String(), "decoder exploded"))
}

func TestInterceptor_StaleResultIsDiscarded(t *testing.T) {
	var sched loop.Manual
	store := compress.NewStore()
	i := compress.NewInterceptor(store,
		compress.WithCompressor(echoCompressor()),
		compress.WithScheduler(&sched),
	)

	i.Handle(context.Background(), imageField("first.png"))
	i.Handle(context.Background(), imageField("second.png"))
	require.Equal(t, 2, sched.Pending())

	// The second selection finishes first, then the superseded one lands.
	require.True(t, sched.RunAt(1))
	sched.Wait()

	got, ok := store.Lookup("control-1")
	require.True(t, ok)
	assert.Equal(t, compress.DataURL(form.File{ContentType: "image/jpeg", Data: []byte("small-second.png")}), got)
}

func TestInterceptor_PendingCompressionLeavesOriginalAsCandidate(t *testing.T) {
	var sched loop.Manual
	store := compress.NewStore()
	i := compress.NewInterceptor(store,
		compress.WithCompressor(echoCompressor()),
		compress.WithScheduler(&sched),
	)

	i.Handle(context.Background(), imageField("first.png"))
	sched.Wait()
	require.Equal(t, 1, store.Len())

	i.Handle(context.Background(), imageField("second.png"))
	_, ok := store.Lookup("control-1")
	assert.False(t, ok, "record from the previous selection must not outlive a reselection")
}

func TestInterceptor_NoFileWarns(t *testing.T) {
	var logs bytes.Buffer
	i := compress.NewInterceptor(nil,
		compress.WithScheduler(loop.Inline{}),
		compress.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	field := imageField("x.png")
	field.Files = nil

	i.Handle(context.Background(), field)
	assert.Equal(t, 0, i.Store().Len())
	assert.Contains(t, logs.String(), "no file selected")
}
