package consultation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
)

type fakeSource struct {
	record  *Record
	getErr  error
	list    []Record
	listErr error

	getCalls  int
	listCalls int
}

func (f *fakeSource) GetConsultation(ctx context.Context, id string) (*Record, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeSource) ListMyConsultations(ctx context.Context) ([]Record, error) {
	f.listCalls++
	return f.list, f.listErr
}

func TestGatewayDirectFetch(t *testing.T) {
	src := &fakeSource{record: &Record{ID: "C1", PrescriptionStatus: PrescriptionNone}}
	g := NewGateway(src, zap.NewNop())

	record, err := g.Get(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", record.ID)
	assert.Equal(t, 1, src.getCalls)
	assert.Equal(t, 0, src.listCalls, "no fallback when direct fetch succeeds")
}

// A record-level denial falls back to the physician's assigned list, which
// can legitimately carry a broader grant.
func TestGatewayFallbackFindsRecordInList(t *testing.T) {
	src := &fakeSource{
		getErr: apperr.FromStatus(403, "not your record"),
		list: []Record{
			{ID: "C0"},
			{ID: "C1", PrescriptionStatus: PrescriptionDraft},
		},
	}
	g := NewGateway(src, zap.NewNop())

	record, err := g.Get(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", record.ID)
	assert.Equal(t, PrescriptionDraft, record.PrescriptionStatus)
	assert.Equal(t, 1, src.listCalls)
}

func TestGatewayFallbackMatchesHumanFacingID(t *testing.T) {
	src := &fakeSource{
		getErr: apperr.FromStatus(401, ""),
		list:   []Record{{ID: "internal-9", ConsultationID: "CONS-2026-001"}},
	}
	g := NewGateway(src, zap.NewNop())

	record, err := g.Get(context.Background(), "CONS-2026-001")
	require.NoError(t, err)
	assert.Equal(t, "internal-9", record.ID)
}

func TestGatewayFallbackMissIsAccessDenied(t *testing.T) {
	src := &fakeSource{
		getErr: apperr.FromStatus(403, "forbidden"),
		list:   []Record{{ID: "other"}},
	}
	g := NewGateway(src, zap.NewNop())

	_, err := g.Get(context.Background(), "C1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.AccessDenied))
	assert.Contains(t, err.Error(), "not assigned to you or does not exist")
}

// Only access denials trigger the fallback; everything else propagates
// unchanged without a list call.
func TestGatewayOtherErrorsPropagate(t *testing.T) {
	for _, status := range []int{400, 404, 500} {
		src := &fakeSource{getErr: apperr.FromStatus(status, "nope")}
		g := NewGateway(src, zap.NewNop())

		_, err := g.Get(context.Background(), "C1")
		require.Error(t, err)
		assert.Same(t, src.getErr, err, "status %d", status)
		assert.Equal(t, 0, src.listCalls, "status %d", status)
	}
}

func TestGatewayListErrorSurfaces(t *testing.T) {
	src := &fakeSource{
		getErr:  apperr.FromStatus(403, "forbidden"),
		listErr: apperr.FromStatus(500, "boom"),
	}
	g := NewGateway(src, zap.NewNop())

	_, err := g.Get(context.Background(), "C1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Server))
}

func TestGatewayListAlsoDenied(t *testing.T) {
	src := &fakeSource{
		getErr:  apperr.FromStatus(403, "forbidden"),
		listErr: apperr.FromStatus(401, "expired"),
	}
	g := NewGateway(src, zap.NewNop())

	_, err := g.Get(context.Background(), "C1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.AccessDenied))
	assert.Contains(t, err.Error(), "not assigned to you")
}
