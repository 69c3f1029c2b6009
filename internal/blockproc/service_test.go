package blockproc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/logger"
	"github.com/leon-do/web3hook-emit/internal/pkg/types"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init()
}

type ChainstreamServiceMock struct {
	mock.Mock
}

func (m *ChainstreamServiceMock) Start(ctx context.Context) (<-chan chainstream.ObservedBlock, error) {
	args := m.Called(ctx)

	var ch <-chan chainstream.ObservedBlock
	if v := args.Get(0); v != nil {
		ch = v.(<-chan chainstream.ObservedBlock)
	}
	return ch, args.Error(1)
}

func (m *ChainstreamServiceMock) Close() {
	m.Called()
}

type TriggerwatchServiceMock struct {
	mock.Mock
}

func (m *TriggerwatchServiceMock) ProcessBlock(ctx context.Context, block triggerwatch.Block) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

type CheckpointStorageMock struct {
	mock.Mock
}

func (m *CheckpointStorageMock) SaveCheckpoint(ctx context.Context, network string, height types.Hex) error {
	args := m.Called(ctx, network, height)
	return args.Error(0)
}

func (m *CheckpointStorageMock) LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error) {
	args := m.Called(ctx, network)
	return args.Get(0).(types.Hex), args.Error(1)
}

func TestServiceLifecycle(t *testing.T) {
	observed := chainstream.ObservedBlock{
		Network: "ethereum",
		Block: chainstream.Block{
			Height:            types.Hex("0x64"),
			Hash:              "0xb10c",
			TransactionHashes: []string{"0xf00d"},
		},
	}

	expectedBlock := triggerwatch.Block{
		Network:           "ethereum",
		Height:            types.Hex("0x64"),
		Hash:              "0xb10c",
		TransactionHashes: []string{"0xf00d"},
	}

	t.Run("processes observed blocks and saves the checkpoint", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock, 1)
		blocksCh <- observed

		stream := new(ChainstreamServiceMock)
		processor := new(TriggerwatchServiceMock)
		checkpoints := new(CheckpointStorageMock)

		checkpointSaved := make(chan struct{})

		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()
		processor.On("ProcessBlock", mock.Anything, expectedBlock).Return(nil)
		checkpoints.On("SaveCheckpoint", mock.Anything, "ethereum", types.Hex("0x64")).
			Run(func(mock.Arguments) { close(checkpointSaved) }).
			Return(nil)

		svc := New(stream, processor, WithCheckpointStorage(checkpoints))
		t.Cleanup(svc.Close)

		require.NoError(t, svc.Start(t.Context()))

		select {
		case <-checkpointSaved:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the checkpoint")
		}

		processor.AssertExpectations(t)
		checkpoints.AssertExpectations(t)
	})

	t.Run("failed block is retried and the checkpoint waits for success", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock, 1)
		blocksCh <- observed

		stream := new(ChainstreamServiceMock)
		processor := new(TriggerwatchServiceMock)
		checkpoints := new(CheckpointStorageMock)

		checkpointSaved := make(chan struct{})

		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()
		processor.On("ProcessBlock", mock.Anything, expectedBlock).
			Return(errors.New("store offline")).Once()
		processor.On("ProcessBlock", mock.Anything, expectedBlock).Return(nil).Once()
		checkpoints.On("SaveCheckpoint", mock.Anything, "ethereum", types.Hex("0x64")).
			Run(func(mock.Arguments) { close(checkpointSaved) }).
			Return(nil)

		svc := New(stream, processor,
			WithCheckpointStorage(checkpoints),
			WithReprocessInterval(time.Millisecond))
		t.Cleanup(svc.Close)

		require.NoError(t, svc.Start(t.Context()))

		select {
		case <-checkpointSaved:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the checkpoint")
		}

		processor.AssertExpectations(t)
	})

	t.Run("already finished block still advances the watermark", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock, 1)
		blocksCh <- observed

		stream := new(ChainstreamServiceMock)
		processor := new(TriggerwatchServiceMock)
		checkpoints := new(CheckpointStorageMock)

		checkpointSaved := make(chan struct{})

		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()
		processor.On("ProcessBlock", mock.Anything, expectedBlock).
			Return(triggerwatch.ErrAlreadyFinished)
		checkpoints.On("SaveCheckpoint", mock.Anything, "ethereum", types.Hex("0x64")).
			Run(func(mock.Arguments) { close(checkpointSaved) }).
			Return(nil)

		svc := New(stream, processor, WithCheckpointStorage(checkpoints))
		t.Cleanup(svc.Close)

		require.NoError(t, svc.Start(t.Context()))

		select {
		case <-checkpointSaved:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the checkpoint")
		}
	})

	t.Run("second start fails", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock)

		stream := new(ChainstreamServiceMock)
		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()

		svc := New(stream, new(TriggerwatchServiceMock))
		t.Cleanup(svc.Close)

		require.NoError(t, svc.Start(t.Context()))
		assert.ErrorIs(t, svc.Start(t.Context()), ErrServiceAlreadyStarted)
	})

	t.Run("stream start failure propagates", func(t *testing.T) {
		stream := new(ChainstreamServiceMock)
		stream.On("Start", mock.Anything).
			Return(nil, chainstream.ErrServiceAlreadyStarted)

		svc := New(stream, new(TriggerwatchServiceMock))

		assert.ErrorIs(t, svc.Start(t.Context()), chainstream.ErrServiceAlreadyStarted)
	})

	t.Run("close waits for the in-flight block to finish", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock, 1)
		blocksCh <- observed

		stream := new(ChainstreamServiceMock)
		processor := new(TriggerwatchServiceMock)
		checkpoints := new(CheckpointStorageMock)

		processing := make(chan struct{})
		release := make(chan struct{})

		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()
		processor.On("ProcessBlock", mock.Anything, expectedBlock).
			Run(func(mock.Arguments) {
				close(processing)
				<-release
			}).
			Return(nil)
		checkpoints.On("SaveCheckpoint", mock.Anything, "ethereum", types.Hex("0x64")).Return(nil)

		svc := New(stream, processor, WithCheckpointStorage(checkpoints))

		require.NoError(t, svc.Start(t.Context()))

		select {
		case <-processing:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for processing to begin")
		}

		go close(release)
		svc.Close()

		processor.AssertExpectations(t)
		checkpoints.AssertExpectations(t)
	})

	t.Run("close stops the stream", func(t *testing.T) {
		blocksCh := make(chan chainstream.ObservedBlock)

		stream := new(ChainstreamServiceMock)
		stream.On("Start", mock.Anything).Return((<-chan chainstream.ObservedBlock)(blocksCh), nil)
		stream.On("Close").Return()

		svc := New(stream, new(TriggerwatchServiceMock))

		require.NoError(t, svc.Start(t.Context()))
		svc.Close()

		stream.AssertCalled(t, "Close")
	})
}
