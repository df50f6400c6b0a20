// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/amirphl/dti-portal/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// CaptchaService guards login with a rotate captcha. The user turns the thumb
// image until it lines up with the master image and submits the angle.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	// VerifyRotate consumes the challenge whatever the outcome
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

// ChallengeStore keeps the expected angle of each open challenge until it expires
type ChallengeStore interface {
	Put(ctx context.Context, id string, angle int, ttl time.Duration) error
	// Take returns and removes the stored angle
	Take(ctx context.Context, id string) (int, bool, error)
}

type captchaServiceImpl struct {
	rotator rotate.Captcha
	store   ChallengeStore
	ttl     time.Duration
	padding int // accepted angle difference in degrees
}

// NewCaptchaServiceRotate builds a rotate captcha over generated backgrounds
func NewCaptchaServiceRotate(store ChallengeStore, ttl time.Duration, padding int, imgSizePx int) CaptchaService {
	if imgSizePx <= 0 {
		imgSizePx = 220
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}

	builder := rotate.NewBuilder(rotate.WithImageSquareSize(imgSizePx))
	builder.SetResources(rotate.WithImages(generateRotateBackgrounds(3, imgSizePx)))

	return &captchaServiceImpl{
		rotator: builder.Make(),
		store:   store,
		ttl:     ttl,
		padding: padding,
	}
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate captcha: %w", err)
	}

	block := captData.GetData()
	if block == nil {
		return nil, errors.New("captcha generator returned no data")
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if err := s.store.Put(ctx, id, block.Angle, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store captcha challenge: %w", err)
	}

	return &RotateChallenge{
		ID:                id,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	target, ok, err := s.store.Take(ctx, challengeID)
	if err != nil || !ok {
		return false
	}
	return rotate.Validate(int(math.Round(userAngle)), target, s.padding)
}

// MemoryChallengeStore is a process local ChallengeStore
type MemoryChallengeStore struct {
	mu  sync.Mutex
	m   map[string]memoryChallenge
	now utils.Clock
}

type memoryChallenge struct {
	angle     int
	expiresAt time.Time
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		m:   make(map[string]memoryChallenge),
		now: utils.UTCNow,
	}
}

func (s *MemoryChallengeStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.m {
		if !now.Before(v.expiresAt) {
			delete(s.m, k)
		}
	}
	s.m[id] = memoryChallenge{angle: angle, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.m[id]
	if !ok {
		return 0, false, nil
	}
	delete(s.m, id)
	if !s.now().Before(c.expiresAt) {
		return 0, false, nil
	}
	return c.angle, true, nil
}

// RedisChallengeStore shares challenges between replicas
type RedisChallengeStore struct {
	rc     *redis.Client
	prefix string
}

func NewRedisChallengeStore(rc *redis.Client, prefix string) *RedisChallengeStore {
	return &RedisChallengeStore{rc: rc, prefix: prefix}
}

func (s *RedisChallengeStore) key(id string) string {
	return fmt.Sprintf("%s:captcha:%s", s.prefix, id)
}

func (s *RedisChallengeStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	return s.rc.Set(ctx, s.key(id), angle, ttl).Err()
}

func (s *RedisChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	v, err := s.rc.GetDel(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	angle, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt captcha challenge %s: %w", id, err)
	}
	return angle, true, nil
}

func generateRotateBackgrounds(n int, size int) []image.Image {
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, newNoiseGradientImage(size, size))
	}
	return imgs
}

// newNoiseGradientImage draws a radial gradient with random noise and two translucent bands
func newNoiseGradientImage(w, h int) image.Image {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	half := float64(w) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - half
			dy := float64(y) - float64(h)/2
			t := math.Min(math.Sqrt(dx*dx+dy*dy)/half, 1)
			base := uint8(200 - int(150*t))
			noise := uint8(rand.Intn(30))
			rgba.Set(x, y, color.RGBA{R: base + noise/3, G: base, B: 255 - base/2, A: 255})
		}
	}
	band := func(x, y, bw, bh int, c color.RGBA) {
		draw.Draw(rgba, image.Rect(x, y, x+bw, y+bh), &image.Uniform{C: c}, image.Point{}, draw.Over)
	}
	band(10, 10, w/3, h/12, color.RGBA{R: 255, G: 255, B: 255, A: 32})
	band(w/2, h/3, w/3, h/10, color.RGBA{R: 0, G: 0, B: 0, A: 24})
	return rgba
}
