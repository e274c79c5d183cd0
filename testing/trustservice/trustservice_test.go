package trustservice_test

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ubirch/go-certify/core/record"
	"github.com/ubirch/go-certify/testing/trustservice"
)

const digest = "ungWv48Bz+pBQUDeXa4iI7ADYaOWF3qctBD/YfIAFa0="

func post(svc *trustservice.Server, identity uuid.UUID) (int, error) {
	req, err := http.NewRequest(http.MethodPost, svc.AnchorURL().String(), strings.NewReader(digest))
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Identity-Id", identity.String())
	res, err := svc.Client().Do(req)
	if err != nil {
		return 0, err
	}
	res.Body.Close()
	return res.StatusCode, nil
}

func TestConcurrentDuplicateAnchors(t *testing.T) {
	svc := trustservice.New()
	t.Cleanup(svc.Close)

	const n = 16
	statuses := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i], errs[i] = post(svc, uuid.New())
		}()
	}
	wg.Wait()

	counts := map[int]int{}
	for i, s := range statuses {
		require.NoError(t, errs[i])
		counts[s]++
	}
	require.Equal(t, map[int]int{http.StatusOK: 1, http.StatusConflict: n - 1}, counts)
}

func TestVersion(t *testing.T) {
	svc := trustservice.New(trustservice.WithVersion(0x22))
	t.Cleanup(svc.Close)

	status, err := post(svc, uuid.New())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	rec, ok := svc.Anchored(digest)
	require.True(t, ok)
	require.Equal(t, int64(0x22), rec.Version)
	require.Equal(t, record.Hash, rec.TypeHint)
}
