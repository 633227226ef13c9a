package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
	"github.com/richinex/periscope/view"
)

type styles struct {
	header lipgloss.Style
	muted  lipgloss.Style
	camera lipgloss.Style
	clip   lipgloss.Style
	snap   lipgloss.Style
	warn   lipgloss.Style
	panel  lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		camera: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		clip:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		snap:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// eventRow is one event as printed.
type eventRow struct {
	Camera   string   `json:"camera"`
	Type     string   `json:"type"`
	Start    string   `json:"start"`
	End      string   `json:"end,omitempty"`
	Title    string   `json:"title"`
	What     []string `json:"what,omitempty"`
	Where    []string `json:"where,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Content  string   `json:"content_id,omitempty"`
	Favorite bool     `json:"favorite,omitempty"`
}

func eventRows(items []view.Item, loc *time.Location) []eventRow {
	rows := make([]eventRow, 0, len(items))
	for _, item := range items {
		media, ok := item.(*view.Media)
		if !ok {
			continue
		}
		row := eventRow{
			Camera:  media.CameraID(),
			Type:    string(media.MediaType()),
			Start:   media.StartTime().In(loc).Format(time.RFC3339),
			Title:   media.Title(),
			What:    media.What(),
			Where:   media.Where(),
			Tags:    media.Tags(),
			Content: media.ContentID(),
		}
		if end := media.EndTime(); !end.IsZero() {
			row.End = end.In(loc).Format(time.RFC3339)
		}
		if fav := media.IsFavorite(); fav != nil {
			row.Favorite = *fav
		}
		rows = append(rows, row)
	}
	return rows
}

func (s styles) renderEvents(items []view.Item, loc *time.Location) string {
	rows := eventRows(items, loc)
	if len(rows) == 0 {
		return s.muted.Render("no events") + "\n"
	}

	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row.Camera))
	}

	var b strings.Builder
	b.WriteString(s.header.Render(fmt.Sprintf("%d events", len(rows))) + "\n")
	for _, row := range rows {
		kind := s.clip.Render("clip    ")
		if row.Type == string(view.MediaTypeSnapshot) {
			kind = s.snap.Render("snapshot")
		}
		start, _ := time.Parse(time.RFC3339, row.Start)
		line := fmt.Sprintf("%s  %s  %s  %s",
			s.muted.Render(start.Format("2006-01-02 15:04:05")),
			s.camera.Render(fmt.Sprintf("%-*s", width, row.Camera)),
			kind,
			row.Title,
		)
		if len(row.Where) > 0 {
			line += s.muted.Render(" @ " + strings.Join(row.Where, ", "))
		}
		if row.Favorite {
			line += " " + s.warn.Render("★")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (s styles) renderMetadata(metadata *model.MediaMetadata) string {
	var b strings.Builder
	section := func(title string, set model.StringSet) {
		if set.Len() == 0 {
			return
		}
		b.WriteString(s.header.Render(title) + "\n")
		for _, v := range set.Sorted() {
			b.WriteString("  " + v + "\n")
		}
	}
	section("Days", metadata.Days)
	section("What", metadata.What)
	section("Where", metadata.Where)
	section("Tags", metadata.Tags)
	if b.Len() == 0 {
		return s.muted.Render("no media") + "\n"
	}
	return b.String()
}

// cameraRow is one camera as printed by detect.
type cameraRow struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Engine       string            `json:"engine"`
	Icon         string            `json:"icon"`
	Capabilities []string          `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints,omitempty"`
}

func newCameraRow(camera *engine.Camera, meta engine.CameraMetadata, endpoints *engine.Endpoints) cameraRow {
	row := cameraRow{
		ID:        camera.ID(),
		Title:     meta.Title,
		Engine:    camera.Engine.String(),
		Icon:      meta.Icon,
		Endpoints: make(map[string]string),
	}
	if camera.Capabilities != nil {
		for _, c := range camera.Capabilities.List() {
			row.Capabilities = append(row.Capabilities, string(c))
		}
	}
	if endpoints != nil {
		for name, endpoint := range map[string]*engine.Endpoint{
			"ui":          endpoints.UI,
			"go2rtc":      endpoints.Go2RTC,
			"jsmpeg":      endpoints.JSMpeg,
			"webrtc_card": endpoints.WebRTCCard,
		} {
			if endpoint != nil {
				row.Endpoints[name] = endpoint.Endpoint
			}
		}
	}
	return row
}

func (s styles) renderCameras(rows []cameraRow) string {
	if len(rows) == 0 {
		return s.muted.Render("no cameras") + "\n"
	}
	panels := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		b.WriteString(s.camera.Render(row.Title) + " " + s.muted.Render("("+row.ID+")") + "\n")
		b.WriteString("engine        " + row.Engine + "\n")
		b.WriteString("capabilities  " + strings.Join(row.Capabilities, ", "))

		names := make([]string, 0, len(row.Endpoints))
		for name := range row.Endpoints {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("\n%-13s %s", name, row.Endpoints[name]))
		}
		panels = append(panels, s.panel.Render(b.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...) + "\n"
}

// renderMetrics prints every sample of the engine instruments. Histograms
// print their count and sum.
func (s styles) renderMetrics(gatherer prometheus.Gatherer) (string, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var b strings.Builder
	b.WriteString(s.header.Render("Metrics") + "\n")
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			var labels []string
			for _, pair := range metric.GetLabel() {
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(&b, "  %s %g\n", name, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				fmt.Fprintf(&b, "  %s count=%d sum=%.3fs\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return b.String(), nil
}
