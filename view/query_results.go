package view

import (
	"time"
)

// NoMatch is returned by a ranker that found nothing to select.
const NoMatch = -1

// NoSelection is the selected index of a view with nothing selected.
const NoSelection = -1

type selectApproach int

const (
	selectLast selectApproach = iota
	selectFirst
)

type options struct {
	approach  selectApproach
	index     *int
	timestamp time.Time
}

// Option configures New.
type Option func(*options)

// SelectFirst starts with the first item selected.
func SelectFirst() Option {
	return func(o *options) { o.approach = selectFirst }
}

// SelectLast starts with the last item selected. This is the default.
func SelectLast() Option {
	return func(o *options) { o.approach = selectLast }
}

// WithSelectedIndex starts with item i selected (clamped into range).
func WithSelectedIndex(i int) Option {
	return func(o *options) { o.index = &i }
}

// WithTimestamp sets the instant the results were produced.
func WithTimestamp(t time.Time) Option {
	return func(o *options) { o.timestamp = t }
}

// position locates a main item in its camera slice.
type position struct {
	cameraID   string // "" for non-camera items
	sliceIndex int
}

// QueryResults is an ordered result set with a main selection cursor and a
// per-camera slice, each slice with its own cursor. All views share one
// item slice.
//
// Selecting a camera item in the main view aligns that camera's slice
// cursor with it. Selecting inside a slice leaves the main cursor alone
// until promoted with PromoteCameraSelectionToMainSelection.
//
// Not safe for concurrent use.
type QueryResults struct {
	items     []Item
	selected  int
	timestamp time.Time

	// Main view only.
	cameraIDs []string
	slices    map[string]*QueryResults
	positions []position

	// Slice only.
	cameraID  string
	mainIndex []int
}

// New builds results over items.
func New(items []Item, opts ...Option) *QueryResults {
	o := options{approach: selectLast}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timestamp.IsZero() {
		o.timestamp = time.Now()
	}

	r := &QueryResults{
		items:     items,
		selected:  NoSelection,
		timestamp: o.timestamp,
		slices:    make(map[string]*QueryResults),
		positions: make([]position, len(items)),
	}

	for i, item := range items {
		cameraID := itemCameraID(item)
		if cameraID == "" {
			r.positions[i] = position{sliceIndex: NoSelection}
			continue
		}
		slice, ok := r.slices[cameraID]
		if !ok {
			slice = &QueryResults{
				selected:  NoSelection,
				timestamp: o.timestamp,
				cameraID:  cameraID,
			}
			r.slices[cameraID] = slice
			r.cameraIDs = append(r.cameraIDs, cameraID)
		}
		r.positions[i] = position{cameraID: cameraID, sliceIndex: len(slice.items)}
		slice.items = append(slice.items, item)
		slice.mainIndex = append(slice.mainIndex, i)
	}

	for _, slice := range r.slices {
		slice.selected = len(slice.items) - 1
	}

	if len(items) > 0 {
		switch {
		case o.index != nil:
			r.selectMain(*o.index)
		case o.approach == selectFirst:
			r.selectMain(0)
		default:
			r.selectMain(len(items) - 1)
		}
	}
	return r
}

func itemCameraID(item Item) string {
	if ci, ok := item.(CameraItem); ok {
		return ci.CameraID()
	}
	return ""
}

// isMain reports whether r is a main view rather than a camera slice.
func (r *QueryResults) isMain() bool {
	return r.slices != nil
}

// view returns the view a camera id addresses: r itself for "", the
// camera's slice otherwise, or nil.
func (r *QueryResults) view(cameraID string) *QueryResults {
	if cameraID == "" {
		return r
	}
	if r.isMain() {
		return r.slices[cameraID]
	}
	if cameraID == r.cameraID {
		return r
	}
	return nil
}

// Slice returns the live view of one camera, r itself for "", or nil for
// an unknown camera. The slice shares items with r and keeps its own
// cursor.
func (r *QueryResults) Slice(cameraID string) *QueryResults {
	return r.view(cameraID)
}

// Clone returns results sharing the same items with independent cursors.
func (r *QueryResults) Clone() *QueryResults {
	clone := *r
	if r.isMain() {
		clone.slices = make(map[string]*QueryResults, len(r.slices))
		for id, slice := range r.slices {
			s := *slice
			clone.slices[id] = &s
		}
	}
	return &clone
}

// Results returns the items of a view ("" for main), or nil for an unknown
// camera.
func (r *QueryResults) Results(cameraID string) []Item {
	v := r.view(cameraID)
	if v == nil {
		return nil
	}
	return v.items
}

// Count returns how many items a view holds, 0 for an unknown camera.
func (r *QueryResults) Count(cameraID string) int {
	return len(r.Results(cameraID))
}

// HasResults reports whether r holds any item.
func (r *QueryResults) HasResults() bool {
	return len(r.items) > 0
}

// Result returns item i of r, or nil when out of range.
func (r *QueryResults) Result(i int) Item {
	if i < 0 || i >= len(r.items) {
		return nil
	}
	return r.items[i]
}

// CameraIDs returns the cameras present, in order of first appearance.
func (r *QueryResults) CameraIDs() []string {
	if !r.isMain() {
		return []string{r.cameraID}
	}
	return r.cameraIDs
}

// Timestamp returns when the results were produced.
func (r *QueryResults) Timestamp() time.Time {
	return r.timestamp
}

// SelectedIndex returns the selected index of a view, or NoSelection.
func (r *QueryResults) SelectedIndex(cameraID string) int {
	v := r.view(cameraID)
	if v == nil {
		return NoSelection
	}
	return v.selected
}

// SelectedResult returns the selected item of a view, or nil.
func (r *QueryResults) SelectedResult(cameraID string) Item {
	v := r.view(cameraID)
	if v == nil || v.selected == NoSelection {
		return nil
	}
	return v.items[v.selected]
}

// HasSelectedResult reports whether a view has a selection.
func (r *QueryResults) HasSelectedResult(cameraID string) bool {
	return r.SelectedResult(cameraID) != nil
}

// ResetSelectedResult clears r's own cursor.
func (r *QueryResults) ResetSelectedResult() *QueryResults {
	r.selected = NoSelection
	return r
}

// SelectIndex selects item i of a view ("" for main), clamped into range.
// A main selection of a camera item also moves that camera's cursor.
func (r *QueryResults) SelectIndex(i int, cameraID string) *QueryResults {
	v := r.view(cameraID)
	if v == nil || len(v.items) == 0 {
		return r
	}
	if v == r {
		r.selectMain(i)
	} else {
		v.selected = clamp(i, len(v.items))
	}
	return r
}

// selectMain selects on r itself, aligning the camera slice when r is a
// main view.
func (r *QueryResults) selectMain(i int) {
	if len(r.items) == 0 {
		return
	}
	r.selected = clamp(i, len(r.items))
	if !r.isMain() {
		return
	}
	pos := r.positions[r.selected]
	if slice := r.slices[pos.cameraID]; slice != nil {
		slice.selected = pos.sliceIndex
	}
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}

// SelectResultIfFound selects the first item of a view matching pred.
func (r *QueryResults) SelectResultIfFound(pred func(Item) bool, cameraID string) *QueryResults {
	v := r.view(cameraID)
	if v == nil {
		return r
	}
	for i, item := range v.items {
		if pred(item) {
			return r.SelectIndex(i, cameraID)
		}
	}
	return r
}

// BestResultOptions scopes SelectBestResult.
type BestResultOptions struct {
	CameraID string

	// AllCameras ranks each camera slice separately.
	AllCameras bool
}

// SelectBestResult lets ranker choose an index from a view's items. A
// negative index (NoMatch) leaves the selection unchanged.
func (r *QueryResults) SelectBestResult(ranker func([]Item) int, opts BestResultOptions) *QueryResults {
	if opts.AllCameras {
		for _, cameraID := range r.CameraIDs() {
			r.rankInto(ranker, cameraID)
		}
		return r
	}
	r.rankInto(ranker, opts.CameraID)
	return r
}

func (r *QueryResults) rankInto(ranker func([]Item) int, cameraID string) {
	v := r.view(cameraID)
	if v == nil || len(v.items) == 0 {
		return
	}
	if i := ranker(v.items); i >= 0 {
		r.SelectIndex(i, cameraID)
	}
}

// PromoteCameraSelectionToMainSelection moves the main cursor to the item
// selected in a camera slice.
func (r *QueryResults) PromoteCameraSelectionToMainSelection(cameraID string) *QueryResults {
	if !r.isMain() {
		return r
	}
	slice := r.slices[cameraID]
	if slice == nil || slice.selected == NoSelection {
		return r
	}
	r.selected = slice.mainIndex[slice.selected]
	return r
}

// MultipleSelectionOptions scopes GetMultipleSelectedResults.
type MultipleSelectionOptions struct {
	Main       bool
	AllCameras bool
	CameraID   string
}

// GetMultipleSelectedResults returns the distinct selected items across
// the requested views: main first, then camera slices in camera order.
// Views without a selection contribute nothing.
func (r *QueryResults) GetMultipleSelectedResults(opts MultipleSelectionOptions) []Item {
	var out []Item
	add := func(item Item) {
		if item == nil {
			return
		}
		for _, seen := range out {
			if seen == item {
				return
			}
		}
		out = append(out, item)
	}

	if opts.Main {
		add(r.SelectedResult(""))
	}
	switch {
	case opts.AllCameras:
		for _, cameraID := range r.CameraIDs() {
			add(r.SelectedResult(cameraID))
		}
	case opts.CameraID != "":
		add(r.SelectedResult(opts.CameraID))
	}
	return out
}

// IsSupersetOf reports whether every item of other is also in r. Empty
// results are a superset of nothing.
func (r *QueryResults) IsSupersetOf(other *QueryResults) bool {
	if other == nil || len(r.items) == 0 || len(other.items) == 0 {
		return false
	}
	present := make(map[Item]struct{}, len(r.items))
	for _, item := range r.items {
		present[item] = struct{}{}
	}
	for _, item := range other.items {
		if _, ok := present[item]; !ok {
			return false
		}
	}
	return true
}
