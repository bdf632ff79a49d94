package render

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "show_menu", ShowMenu.String())
	assert.Equal(t, "dismiss_notification", DismissNotification.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Render(Instruction{Kind: ShowLoading, Message: "loading"})
	rec.Render(Instruction{Kind: ApplyHighlight, Name: "a"})
	rec.Render(Instruction{Kind: ApplyHighlight, Name: "b"})

	assert.Equal(t, []Kind{ShowLoading, ApplyHighlight, ApplyHighlight}, rec.Kinds())
	assert.Len(t, rec.OfKind(ApplyHighlight), 2)

	last, ok := rec.Last(ApplyHighlight)
	require.True(t, ok)
	assert.Equal(t, "b", last.Name)

	_, ok = rec.Last(ShowResults)
	assert.False(t, ok)

	rec.Reset()
	assert.Empty(t, rec.Instructions())
}

func TestFanoutAndFunc(t *testing.T) {
	rec := NewRecorder()
	var seen []Kind
	surface := Fanout{rec, SurfaceFunc(func(in Instruction) { seen = append(seen, in.Kind) })}

	surface.Render(Instruction{Kind: ClearResults})
	assert.Equal(t, []Kind{ClearResults}, rec.Kinds())
	assert.Equal(t, []Kind{ClearResults}, seen)
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec.Render(Instruction{Kind: ShowNotification})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, rec.Instructions(), 500)
}
