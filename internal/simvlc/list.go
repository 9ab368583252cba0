package simvlc

import (
	"slices"

	"github.com/thesyncim/vlc/internal/native"
)

type mediaList struct {
	inst     native.Instance
	refs     int
	items    []native.Media
	readonly bool
	em       native.EventManager
}

type listPlayer struct {
	inst   native.Instance
	list   native.MediaList
	player native.Player
	index  int
}

func (s *Sim) list(op string, h native.MediaList, ex *native.Exception) *mediaList {
	l, ok := s.lists[h]
	if !ok {
		s.violate("%s: unknown media list %#x", op, h)
		s.raise(ex, "invalid media list")
		return nil
	}
	return l
}

func (s *Sim) addList(inst native.Instance) native.MediaList {
	h := native.MediaList(s.handle())
	l := &mediaList{inst: inst, refs: 1}
	l.em = s.newEventManager(uintptr(h))
	s.lists[h] = l
	return h
}

// listEvent fills the item pointer and index of a list event.
func listEvent(item native.Media, index int) func(*native.RawEvent) {
	return func(ev *native.RawEvent) {
		ev.SetPointer(0, uintptr(item))
		ev.SetInt32(native.ListIndexOffset, int32(index))
	}
}

// insertItem retains m and inserts it at pos. s.mu is held.
func (s *Sim) insertItem(h native.MediaList, m native.Media, pos int) []delivery {
	l := s.lists[h]
	ds := s.collect(l.em, listWillAddItem, listEvent(m, pos))
	s.medias[m].refs++
	l.items = slices.Insert(l.items, pos, m)
	return append(ds, s.collect(l.em, listItemAdded, listEvent(m, pos))...)
}

func (s *Sim) appendItem(h native.MediaList, m native.Media) []delivery {
	return s.insertItem(h, m, len(s.lists[h].items))
}

// unrefList drops one reference and frees the list on the last one.
// s.mu is held.
func (s *Sim) unrefList(h native.MediaList) []delivery {
	l, ok := s.lists[h]
	if !ok {
		return nil
	}
	l.refs--
	if l.refs > 0 {
		return nil
	}
	var ds []delivery
	for _, m := range l.items {
		ds = append(ds, s.unrefMedia(m)...)
	}
	delete(s.managers, l.em)
	delete(s.lists, h)
	return ds
}

func (s *Sim) listNew(inst native.Instance, ex *native.Exception) native.MediaList {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_new", ex) {
		return 0
	}
	if s.instance("libvlc_media_list_new", inst, ex) == nil {
		return 0
	}
	return s.addList(inst)
}

func (s *Sim) listRelease(h native.MediaList) {
	s.mu.Lock()
	s.count("libvlc_media_list_release")
	if _, ok := s.lists[h]; !ok {
		s.violate("libvlc_media_list_release: unknown media list %#x", h)
		s.mu.Unlock()
		return
	}
	s.releases["media list"]++
	ds := s.unrefList(h)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listRetain(h native.MediaList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_list_retain")
	if l, ok := s.lists[h]; ok {
		l.refs++
	}
}

func (s *Sim) listAddMedia(h native.MediaList, m native.Media, ex *native.Exception) {
	s.listInsert("libvlc_media_list_add_media", h, m, -1, ex)
}

func (s *Sim) listInsertMedia(h native.MediaList, m native.Media, pos int32, ex *native.Exception) {
	s.listInsert("libvlc_media_list_insert_media", h, m, int(pos), ex)
}

// listInsert raises list events synchronously on the calling thread, as
// libvlc does.
func (s *Sim) listInsert(op string, h native.MediaList, m native.Media, pos int, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter(op, ex) {
		s.mu.Unlock()
		return
	}
	l := s.list(op, h, ex)
	if l == nil || s.media(op, m, ex) == nil {
		s.mu.Unlock()
		return
	}
	if l.readonly {
		s.raise(ex, "Trying to write into a read-only media list.")
		s.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = len(l.items)
	}
	if pos > len(l.items) {
		s.raise(ex, "Index out of bounds")
		s.mu.Unlock()
		return
	}
	ds := s.insertItem(h, m, pos)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listRemoveIndex(h native.MediaList, pos int32, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_list_remove_index", ex) {
		s.mu.Unlock()
		return
	}
	l := s.list("libvlc_media_list_remove_index", h, ex)
	if l == nil {
		s.mu.Unlock()
		return
	}
	if l.readonly {
		s.raise(ex, "Trying to write into a read-only media list.")
		s.mu.Unlock()
		return
	}
	if pos < 0 || int(pos) >= len(l.items) {
		s.raise(ex, "Index out of bounds")
		s.mu.Unlock()
		return
	}
	m := l.items[pos]
	ds := s.collect(l.em, listWillDeleteItem, listEvent(m, int(pos)))
	l.items = slices.Delete(l.items, int(pos), int(pos)+1)
	ds = append(ds, s.collect(l.em, listItemDeleted, listEvent(m, int(pos)))...)
	ds = append(ds, s.unrefMedia(m)...)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listCount(h native.MediaList, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_count", ex) {
		return 0
	}
	if l := s.list("libvlc_media_list_count", h, ex); l != nil {
		return int32(len(l.items))
	}
	return 0
}

func (s *Sim) listItemAtIndex(h native.MediaList, pos int32, ex *native.Exception) native.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_item_at_index", ex) {
		return 0
	}
	l := s.list("libvlc_media_list_item_at_index", h, ex)
	if l == nil {
		return 0
	}
	if pos < 0 || int(pos) >= len(l.items) {
		s.raise(ex, "Index out of bounds")
		return 0
	}
	m := l.items[pos]
	s.medias[m].refs++
	return m
}

func (s *Sim) listIndexOfItem(h native.MediaList, m native.Media, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_index_of_item", ex) {
		return 0
	}
	l := s.list("libvlc_media_list_index_of_item", h, ex)
	if l == nil {
		return -1
	}
	return int32(slices.Index(l.items, m))
}

func (s *Sim) listIsReadonly(h native.MediaList) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_list_is_readonly")
	if l, ok := s.lists[h]; ok && l.readonly {
		return 1
	}
	return 0
}

func (s *Sim) listEventManager(h native.MediaList, ex *native.Exception) native.EventManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_event_manager", ex) {
		return 0
	}
	if l := s.list("libvlc_media_list_event_manager", h, ex); l != nil {
		return l.em
	}
	return 0
}

func (s *Sim) listPlayer(op string, h native.MediaListPlayer, ex *native.Exception) *listPlayer {
	lp, ok := s.listPlayers[h]
	if !ok {
		s.violate("%s: unknown media list player %#x", op, h)
		s.raise(ex, "invalid media list player")
		return nil
	}
	return lp
}

func (s *Sim) listPlayerNew(inst native.Instance, ex *native.Exception) native.MediaListPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_player_new", ex) {
		return 0
	}
	if s.instance("libvlc_media_list_player_new", inst, ex) == nil {
		return 0
	}
	h := native.MediaListPlayer(s.handle())
	s.listPlayers[h] = &listPlayer{inst: inst, index: -1}
	return h
}

func (s *Sim) listPlayerRelease(h native.MediaListPlayer) {
	s.mu.Lock()
	s.count("libvlc_media_list_player_release")
	lp, ok := s.listPlayers[h]
	if !ok {
		s.violate("libvlc_media_list_player_release: unknown media list player %#x", h)
		s.mu.Unlock()
		return
	}
	s.releases["media list player"]++
	var ds []delivery
	if p, ok := s.players[lp.player]; ok {
		p.listPlayer = 0
		if p.hasInput() {
			ds = s.stopPlayer(p)
		}
		ds = append(ds, s.unrefPlayer(lp.player)...)
	}
	if lp.list != 0 {
		ds = append(ds, s.unrefList(lp.list)...)
	}
	delete(s.listPlayers, h)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listPlayerSetMediaPlayer(h native.MediaListPlayer, ph native.Player, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_player_set_media_player", ex) {
		return
	}
	lp := s.listPlayer("libvlc_media_list_player_set_media_player", h, ex)
	p := s.player("libvlc_media_list_player_set_media_player", ph, ex)
	if lp == nil || p == nil {
		return
	}
	if old, ok := s.players[lp.player]; ok {
		old.listPlayer = 0
		s.unrefPlayer(lp.player)
	}
	p.refs++
	p.listPlayer = h
	lp.player = ph
}

func (s *Sim) listPlayerSetMediaList(h native.MediaListPlayer, lh native.MediaList, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_player_set_media_list", ex) {
		return
	}
	lp := s.listPlayer("libvlc_media_list_player_set_media_list", h, ex)
	l := s.list("libvlc_media_list_player_set_media_list", lh, ex)
	if lp == nil || l == nil {
		return
	}
	if lp.list != 0 {
		s.unrefList(lp.list)
	}
	l.refs++
	lp.list = lh
	lp.index = -1
}

// playAt points the driven player at item index and starts it. s.mu is
// held.
func (s *Sim) playAt(h native.MediaListPlayer, index int) ([]delivery, string) {
	lp := s.listPlayers[h]
	l, ok := s.lists[lp.list]
	if !ok {
		return nil, "No media list"
	}
	if index < 0 || index >= len(l.items) {
		return nil, "No more element to play"
	}
	if lp.player == 0 {
		ph, p := s.addPlayer(lp.inst)
		p.listPlayer = h
		lp.player = ph
	}
	p := s.players[lp.player]
	var ds []delivery
	if p.hasInput() {
		ds = s.stopPlayer(p)
	}
	if p.media != 0 {
		ds = append(ds, s.unrefMedia(p.media)...)
	}
	p.media = l.items[index]
	s.medias[p.media].refs++
	lp.index = index
	if !s.startPlayback(lp.player, p) {
		return ds, "libvlc is shutting down"
	}
	return ds, ""
}

// advance moves to the next item once the current one ends. Past the
// last item it stops quietly. s.mu is held.
func (s *Sim) advance(h native.MediaListPlayer) []delivery {
	lp, ok := s.listPlayers[h]
	if !ok {
		return nil
	}
	ds, _ := s.playAt(h, lp.index+1)
	return ds
}

func (s *Sim) listPlayerPlay(h native.MediaListPlayer, ex *native.Exception) {
	s.listPlayerControl("libvlc_media_list_player_play", h, ex, func(lp *listPlayer) int {
		return max(lp.index, 0)
	})
}

func (s *Sim) listPlayerNext(h native.MediaListPlayer, ex *native.Exception) {
	s.listPlayerControl("libvlc_media_list_player_next", h, ex, func(lp *listPlayer) int {
		return lp.index + 1
	})
}

func (s *Sim) listPlayerPlayItemAtIndex(h native.MediaListPlayer, index int32, ex *native.Exception) {
	s.listPlayerControl("libvlc_media_list_player_play_item_at_index", h, ex, func(*listPlayer) int {
		return int(index)
	})
}

func (s *Sim) listPlayerControl(op string, h native.MediaListPlayer, ex *native.Exception, target func(*listPlayer) int) {
	s.mu.Lock()
	if !s.enter(op, ex) {
		s.mu.Unlock()
		return
	}
	lp := s.listPlayer(op, h, ex)
	if lp == nil {
		s.mu.Unlock()
		return
	}
	ds, fail := s.playAt(h, target(lp))
	if fail != "" {
		s.raise(ex, "%s", fail)
	}
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listPlayerPause(h native.MediaListPlayer, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_list_player_pause", ex) {
		s.mu.Unlock()
		return
	}
	lp := s.listPlayer("libvlc_media_list_player_pause", h, ex)
	var ds []delivery
	if lp != nil {
		if p, ok := s.players[lp.player]; ok {
			switch p.state {
			case statePlaying:
				p.state = statePaused
				ds = s.collect(p.em, playerPaused, nil)
			case statePaused:
				p.state = statePlaying
				ds = s.collect(p.em, playerPlaying, nil)
			}
		}
	}
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listPlayerStop(h native.MediaListPlayer, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_list_player_stop", ex) {
		s.mu.Unlock()
		return
	}
	lp := s.listPlayer("libvlc_media_list_player_stop", h, ex)
	var ds []delivery
	if lp != nil {
		if p, ok := s.players[lp.player]; ok && p.hasInput() {
			ds = s.stopPlayer(p)
		}
		lp.index = -1
	}
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) listPlayerIsPlaying(h native.MediaListPlayer, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_list_player_is_playing", ex) {
		return 0
	}
	lp := s.listPlayer("libvlc_media_list_player_is_playing", h, ex)
	if lp == nil {
		return 0
	}
	if p, ok := s.players[lp.player]; ok && p.state == statePlaying {
		return 1
	}
	return 0
}
