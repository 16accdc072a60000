package storage_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger(logger.LoggerEnvDevelopment)
	os.Exit(m.Run())
}

// ===== INPUT DATA =====

var Bets = []models.Bet{
	{Agency: 1, FirstName: "Santiago Lionel", LastName: "Lorca", Document: "30904465", Birthdate: "1999-03-17", Number: 7574},
	{Agency: 2, FirstName: "Ana", LastName: "Gómez", Document: "12", Birthdate: "1980-05-05", Number: 1},
	{Agency: 3, FirstName: "Luis", LastName: "Pérez", Document: "4294967295", Birthdate: "2001-10-10", Number: 99999},
}

func storages(t *testing.T) map[string]storage.BetStorage {
	disk, err := storage.NewBetStorage(filepath.Join(t.TempDir(), "nested", "bets.storage"))
	require.NoError(t, err)
	memory, err := storage.NewBetStorage(storage.MemoryPath)
	require.NoError(t, err)

	return map[string]storage.BetStorage{"disk": disk, "memory": memory}
}

// ===== TESTS =====

func TestBetStorage_StoreAndLoad(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			require.NoError(t, s.StoreBets(Bets[:2]))
			require.NoError(t, s.StoreBets(nil))
			require.NoError(t, s.StoreBets(Bets[2:]))

			loaded, err := s.LoadBets(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Bets, loaded)
		})
	}
}

func TestBetStorage_EmptyLoad(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			loaded, err := s.LoadBets(context.Background())
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}
}

func TestBetStorage_ConcurrentWritersDoNotInterleave(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			writers := 8
			batchesPerWriter := 20

			var wg sync.WaitGroup
			for w := range writers {
				wg.Add(1)
				go func(agency int) {
					defer wg.Done()
					for i := range batchesPerWriter {
						batch := []models.Bet{
							{Agency: models.AgencyID(agency), FirstName: "a", LastName: "b", Document: fmt.Sprint(i), Birthdate: "2000-01-01", Number: i},
							{Agency: models.AgencyID(agency), FirstName: "c", LastName: "d", Document: fmt.Sprint(i), Birthdate: "2000-01-01", Number: i},
						}
						assert.NoError(t, s.StoreBets(batch))
					}
				}(w + 1)
			}
			wg.Wait()

			loaded, err := s.LoadBets(context.Background())
			require.NoError(t, err)
			require.Len(t, loaded, writers*batchesPerWriter*2)

			// both bets of a batch are always adjacent
			for i := 0; i < len(loaded); i += 2 {
				assert.Equal(t, loaded[i].Agency, loaded[i+1].Agency)
				assert.Equal(t, loaded[i].Number, loaded[i+1].Number)
				assert.Equal(t, "a", loaded[i].FirstName)
				assert.Equal(t, "c", loaded[i+1].FirstName)
			}
		})
	}
}

func TestBetStorage_LoadCancelled(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.StoreBets(Bets))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := s.LoadBets(ctx)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestDiskBetStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bets.storage")

	s, err := storage.NewDiskBetStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.StoreBets(Bets))
	require.NoError(t, s.Close())

	reopened, err := storage.NewDiskBetStorage(path)
	require.NoError(t, err)
	loaded, err := reopened.LoadBets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Bets, loaded)
}

func TestDiskBetStorage_CorruptedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bets.storage")
	s, err := storage.NewDiskBetStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.StoreBets(Bets[:1]))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not base64!!\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.LoadBets(context.Background())
	assert.Error(t, err)
}

func TestDiskBetStorage_LargeNumbersSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bets.storage")
	bets := []models.Bet{
		{Agency: 255, FirstName: "A", LastName: "B", Document: "1", Birthdate: "2000-01-01", Number: 1<<53 + 1},
		{Agency: 1, FirstName: "C", LastName: "D", Document: "2", Birthdate: "2000-01-01", Number: math.MaxInt},
	}

	s, err := storage.NewDiskBetStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.StoreBets(bets))
	require.NoError(t, s.Close())

	reopened, err := storage.NewDiskBetStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadBets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bets, loaded)
}
