package vlc

import (
	"runtime"
	"sync"

	"github.com/thesyncim/vlc/internal/native"
)

// MediaListPlayer plays the items of a media list through a player.
type MediaListPlayer struct {
	s *Session
	h *handle[native.MediaListPlayer]

	mu     sync.Mutex
	list   *MediaList
	player *Player
}

func newMediaListPlayer(s *Session, raw native.MediaListPlayer) *MediaListPlayer {
	lib := s.lib
	lp := &MediaListPlayer{s: s}
	lp.h = newHandle("media list player", raw, func(raw native.MediaListPlayer) {
		lib.exec(func() { lib.api.MediaListPlayerRelease(raw) })
	})
	runtime.SetFinalizer(lp, (*MediaListPlayer).finalize)
	return lp
}

// SetMediaList sets the list to play. The list must outlive its use here.
func (lp *MediaListPlayer) SetMediaList(l *MediaList) error {
	list, err := l.h.acquire()
	if err != nil {
		return err
	}
	defer l.h.done()
	err = do(lp.s.lib, lp.h, "libvlc_media_list_player_set_media_list", func(raw native.MediaListPlayer, ex *native.Exception) {
		lp.s.lib.api.MediaListPlayerSetMediaList(raw, list, ex)
	})
	if err == nil {
		lp.mu.Lock()
		lp.list = l
		lp.mu.Unlock()
	}
	return err
}

// SetMediaPlayer sets the player items are played through.
func (lp *MediaListPlayer) SetMediaPlayer(p *Player) error {
	player, err := p.h.acquire()
	if err != nil {
		return err
	}
	defer p.h.done()
	err = do(lp.s.lib, lp.h, "libvlc_media_list_player_set_media_player", func(raw native.MediaListPlayer, ex *native.Exception) {
		lp.s.lib.api.MediaListPlayerSetMediaPlayer(raw, player, ex)
	})
	if err == nil {
		lp.mu.Lock()
		lp.player = p
		lp.mu.Unlock()
	}
	return err
}

// MediaList returns the list last set with SetMediaList.
func (lp *MediaListPlayer) MediaList() *MediaList {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.list
}

// MediaPlayer returns the player last set with SetMediaPlayer.
func (lp *MediaListPlayer) MediaPlayer() *Player {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.player
}

func (lp *MediaListPlayer) Play() error {
	return do(lp.s.lib, lp.h, "libvlc_media_list_player_play", lp.s.lib.api.MediaListPlayerPlay)
}

func (lp *MediaListPlayer) Pause() error {
	return do(lp.s.lib, lp.h, "libvlc_media_list_player_pause", lp.s.lib.api.MediaListPlayerPause)
}

func (lp *MediaListPlayer) Stop() error {
	return do(lp.s.lib, lp.h, "libvlc_media_list_player_stop", lp.s.lib.api.MediaListPlayerStop)
}

// Next skips to the following item.
func (lp *MediaListPlayer) Next() error {
	return do(lp.s.lib, lp.h, "libvlc_media_list_player_next", lp.s.lib.api.MediaListPlayerNext)
}

// PlayItemAt starts the item at index.
func (lp *MediaListPlayer) PlayItemAt(index int) error {
	return do(lp.s.lib, lp.h, "libvlc_media_list_player_play_item_at_index", func(raw native.MediaListPlayer, ex *native.Exception) {
		lp.s.lib.api.MediaListPlayerPlayItemAtIndex(raw, int32(index), ex)
	})
}

func (lp *MediaListPlayer) IsPlaying() (bool, error) {
	return getBool(lp.s.lib, lp.h, "libvlc_media_list_player_is_playing", lp.s.lib.api.MediaListPlayerIsPlaying)
}

// Released reports whether Release has run.
func (lp *MediaListPlayer) Released() bool { return lp.h.isReleased() }

// Release releases the list player. The list and player set on it are
// not released. Calling Release again is a no-op.
func (lp *MediaListPlayer) Release() {
	if lp.h.release() {
		runtime.SetFinalizer(lp, nil)
		lp.mu.Lock()
		lp.list, lp.player = nil, nil
		lp.mu.Unlock()
	}
}

func (lp *MediaListPlayer) finalize() {
	leaked("media list player")
	lp.Release()
}
