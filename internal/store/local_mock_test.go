package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/mock"
	"github.com/cliniclink/recordsync/models"
)

func TestStore_Load_BackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	diskGone := errors.New("input/output error")
	backend := mock.NewMockBackend(ctrl)
	backend.EXPECT().Get("vitals").Return(nil, false, diskGone)

	s := NewStore[struct{}](backend, "vitals", logger.Nop())

	_, err := s.Load(0)
	assert.ErrorIs(t, err, diskGone)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound,
		"a backend failure is not the same as a missing snapshot")
}

func TestStore_Save_BackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	diskFull := errors.New("no space left on device")
	backend := mock.NewMockBackend(ctrl)
	backend.EXPECT().Set("vitals", gomock.Any()).Return(diskFull)

	s := NewStore[struct{}](backend, "vitals", logger.Nop())

	err := s.Save(models.NewSnapshot[struct{}]())
	assert.ErrorIs(t, err, diskFull)
}

func TestStore_Clear_BackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	diskGone := errors.New("input/output error")
	backend := mock.NewMockBackend(ctrl)
	backend.EXPECT().Remove("vitals").Return(diskGone)

	s := NewStore[struct{}](backend, "vitals", logger.Nop())

	assert.ErrorIs(t, s.Clear(), diskGone)
}
