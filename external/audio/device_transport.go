package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Uto-inc/ai-meeting-proxy/internal/audio"
	"github.com/gen2brain/malgo"
)

const (
	deviceSampleRate = 48000
	channels         = 1
	chunkQueueSize   = 64
)

// DeviceTransport bridges a physical capture device and a physical playback
// device. Capture chunks are resampled to the target rate on a consumer
// goroutine so the device callback thread never blocks.
type DeviceTransport struct {
	captureDeviceName  string
	playbackDeviceName string
	targetRate         int
	chunkMs            int

	mu       sync.Mutex
	started  bool
	stopped  bool
	malgoCtx *malgo.AllocatedContext
	capture  *malgo.Device
	playback *malgo.Device

	chunks  chan []byte
	pending []byte
	dropped int

	playMu  sync.Mutex
	playBuf []byte

	consumerCancel context.CancelFunc
	consumerDone   chan struct{}
}

func NewDeviceTransport(captureDeviceName, playbackDeviceName string, targetRate, chunkMs int) *DeviceTransport {
	return &DeviceTransport{
		captureDeviceName:  captureDeviceName,
		playbackDeviceName: playbackDeviceName,
		targetRate:         targetRate,
		chunkMs:            chunkMs,
		chunks:             make(chan []byte, chunkQueueSize),
	}
}

func (t *DeviceTransport) Start(_ context.Context, onChunk audio.ChunkFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return fmt.Errorf("device transport already started")
	}

	malgoConfig := malgo.ContextConfig{}
	malgoConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	malgoCtx, err := malgo.InitContext(nil, malgoConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}
	t.malgoCtx = malgoCtx

	if err := t.initCapture(); err != nil {
		t.teardownLocked()
		return err
	}
	if err := t.initPlayback(); err != nil {
		t.teardownLocked()
		return err
	}

	t.startConsumer(onChunk)

	if err := t.capture.Start(); err != nil {
		t.stopConsumerLocked()
		t.teardownLocked()
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	if err := t.playback.Start(); err != nil {
		t.stopConsumerLocked()
		t.teardownLocked()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	t.started = true
	slog.Info("device transport started",
		"capture_device", t.captureDeviceName,
		"playback_device", t.playbackDeviceName,
		"device_rate", deviceSampleRate,
		"target_rate", t.targetRate)
	return nil
}

func (t *DeviceTransport) initCapture() error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.SampleRate = deviceSampleRate
	deviceConfig.PeriodSizeInMilliseconds = uint32(t.chunkMs)

	if t.captureDeviceName != "" {
		id, err := t.resolveDevice(malgo.Capture, t.captureDeviceName)
		if err != nil {
			return err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	chunkBytes := deviceSampleRate * t.chunkMs / 1000 * 2
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			t.pushCaptured(pInputSamples, chunkBytes)
		},
	}

	device, err := malgo.InitDevice(t.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to init capture device: %w", err)
	}
	t.capture = device
	return nil
}

func (t *DeviceTransport) initPlayback() error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = deviceSampleRate

	if t.playbackDeviceName != "" {
		id, err := t.resolveDevice(malgo.Playback, t.playbackDeviceName)
		if err != nil {
			return err
		}
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSamples, _ []byte, _ uint32) {
			t.popPlayback(pOutputSamples)
		},
	}

	device, err := malgo.InitDevice(t.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to init playback device: %w", err)
	}
	t.playback = device
	return nil
}

// resolveDevice matches the configured name against enumerated device names
// by case-insensitive substring, the same way loopback devices like
// "BlackHole 2ch" are usually addressed.
func (t *DeviceTransport) resolveDevice(kind malgo.DeviceType, name string) (malgo.DeviceID, error) {
	infos, err := t.malgoCtx.Devices(kind)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	needle := strings.ToLower(name)
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			return info.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, name)
}

// pushCaptured runs on the device callback thread. It only slices complete
// chunks into the queue; resampling happens on the consumer goroutine.
func (t *DeviceTransport) pushCaptured(samples []byte, chunkBytes int) {
	t.pending = append(t.pending, samples...)
	for len(t.pending) >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, t.pending[:chunkBytes])
		t.pending = t.pending[chunkBytes:]
		select {
		case t.chunks <- chunk:
		default:
			t.dropped++
			if t.dropped%100 == 1 {
				slog.Warn("capture queue full, dropping chunk", "dropped_total", t.dropped)
			}
		}
	}
}

// startConsumer launches the chunk consumer on a transport-owned context.
// Callers come and go with request scopes; the consumer runs until Stop.
func (t *DeviceTransport) startConsumer(onChunk audio.ChunkFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	t.consumerCancel = cancel
	t.consumerDone = make(chan struct{})
	go t.consumeChunks(ctx, onChunk)
}

func (t *DeviceTransport) stopConsumerLocked() {
	if t.consumerCancel != nil {
		t.consumerCancel()
		<-t.consumerDone
		t.consumerCancel = nil
	}
}

func (t *DeviceTransport) consumeChunks(ctx context.Context, onChunk audio.ChunkFunc) {
	defer close(t.consumerDone)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk := <-t.chunks:
			onChunk(audio.Resample(chunk, deviceSampleRate, t.targetRate))
		}
	}
}

// popPlayback runs on the device callback thread. It fills the output buffer
// from the queued playback audio and zero-fills the remainder as silence.
func (t *DeviceTransport) popPlayback(out []byte) {
	t.playMu.Lock()
	n := copy(out, t.playBuf)
	t.playBuf = t.playBuf[n:]
	t.playMu.Unlock()
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

func (t *DeviceTransport) PlayAudio(pcm []byte, sourceRate int) error {
	t.mu.Lock()
	if !t.started || t.stopped {
		t.mu.Unlock()
		return fmt.Errorf("device transport is not running")
	}
	t.mu.Unlock()

	resampled := audio.Resample(pcm, sourceRate, deviceSampleRate)
	t.playMu.Lock()
	t.playBuf = append(t.playBuf, resampled...)
	t.playMu.Unlock()
	return nil
}

func (t *DeviceTransport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true

	t.stopConsumerLocked()
	t.teardownLocked()
	slog.Info("device transport stopped")
}

func (t *DeviceTransport) teardownLocked() {
	if t.capture != nil {
		_ = t.capture.Stop()
		t.capture.Uninit()
		t.capture = nil
	}
	if t.playback != nil {
		_ = t.playback.Stop()
		t.playback.Uninit()
		t.playback = nil
	}
	if t.malgoCtx != nil {
		_ = t.malgoCtx.Uninit()
		t.malgoCtx.Free()
		t.malgoCtx = nil
	}
}
