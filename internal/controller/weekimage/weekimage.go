// Package weekimage рисует обзор недели репетитора в PNG.
package weekimage

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minEntryHeight   = 8.0
	entryRadius      = 6.0
	shadowOffset     = 3.0
	hourPadding      = 1
	defaultFirstHour = 8
	defaultLastHour  = 20
	maxLabelRunes    = 18
)

// Размеры шрифтов
const (
	titleFontSize  = 25.0
	dayFontSize    = 24.0
	hourFontSize   = 16.0
	entryFontSize  = 16.0
	legendFontSize = 13.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 214, 204, 255}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}
	blockedColor     = color.NRGBA{120, 120, 120, 90}

	freeColor      = color.RGBA{133, 193, 85, 220}
	pendingColor   = color.RGBA{255, 204, 102, 240}
	confirmedColor = color.RGBA{255, 182, 193, 255}
	entryTextColor = color.RGBA{20, 24, 28, 230}
	shadowColor    = color.RGBA{0, 0, 0, 20}
	legendColor    = color.RGBA{70, 74, 78, 220}
)

type fontStyle int

const (
	regular fontStyle = iota
	bold
)

var (
	fontsMu sync.Mutex
	fonts   = map[fontStyle]*opentype.Font{}
)

// setFont выбирает шрифт; при ошибке разбора остаётся встроенный растровый
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontsMu.Lock()
	f, ok := fonts[style]
	if !ok {
		data := goregular.TTF
		if style == bold {
			data = gobold.TTF
		}
		parsed, err := opentype.Parse(data)
		if err == nil {
			f = parsed
			fonts[style] = f
		}
	}
	fontsMu.Unlock()

	if f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// hourRange - видимые часы [start, end]
type hourRange struct {
	start int
	end   int
}

func (h hourRange) total() int {
	return h.end - h.start + 1
}

// layout - геометрия сетки
type layout struct {
	hours      hourRange
	dayWidth   float64
	cellHeight float64
	zone       *clock.TimeZone
}

// y переводит момент в координату внутри колонки дня
func (l layout) y(t time.Time) float64 {
	local := l.zone.Local(t)
	hour := float64(local.Hour()) + float64(local.Minute())/60
	return headerHeight + (hour-float64(l.hours.start))*l.cellHeight
}

func (l layout) columnX(day int) float64 {
	return leftLabelsWidth + float64(day)*l.dayWidth
}

// Render рисует обзор недели: колонки дней, свободное время, заявки, уроки и закрытые периоды
func Render(view *service.WeekView, zone *clock.TimeZone) ([]byte, error) {
	days := view.Days()
	hours := visibleHours(view.Entries, zone)
	l := layout{
		hours:      hours,
		dayWidth:   float64(imageWidth-leftLabelsWidth-legendWidth) / float64(len(days)),
		cellHeight: float64(imageHeight-headerHeight) / float64(hours.total()),
		zone:       zone,
	}

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	drawHeader(dc, days, zone)
	drawHourLabels(dc, l)

	byDay := groupByDay(view.Entries, zone)
	for i, d := range days {
		drawDay(dc, l, i, d, i == 0)
		drawExceptions(dc, l, i, d, view.Exceptions)
		for _, e := range byDay[d] {
			drawEntry(dc, l, i, e)
		}
	}
	drawNowLine(dc, l, view.Now)
	drawLegend(dc, l, len(days))

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

// visibleHours - часы, в которые попадают интервалы, с запасом сверху и снизу
func visibleHours(entries []service.WeekEntry, zone *clock.TimeZone) hourRange {
	first, last := 24, -1
	for _, e := range entries {
		start, end := zone.Local(e.Start), zone.Local(e.End())
		if start.Hour() < first {
			first = start.Hour()
		}
		endHour := end.Hour()
		if end.Minute() == 0 && endHour > 0 {
			endHour--
		}
		if civil.DateOf(end) != civil.DateOf(start) {
			endHour = 23
		}
		if endHour > last {
			last = endHour
		}
	}

	if last < 0 {
		return hourRange{start: defaultFirstHour, end: defaultLastHour}
	}
	return hourRange{
		start: max(first-hourPadding, 0),
		end:   min(last+hourPadding, 23),
	}
}

func groupByDay(entries []service.WeekEntry, zone *clock.TimeZone) map[civil.Date][]service.WeekEntry {
	out := make(map[civil.Date][]service.WeekEntry)
	for _, e := range entries {
		d := zone.DateOf(e.Start)
		out[d] = append(out[d], e)
	}
	return out
}

func drawHeader(dc *gg.Context, days []civil.Date, zone *clock.TimeZone) {
	first, last := days[0], days[len(days)-1]
	title := fmt.Sprintf("Неделя %02d.%02d – %02d.%02d (%s)",
		first.Day, int(first.Month), last.Day, int(last.Month), zone.Name())

	setFont(dc, titleFontSize, bold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, leftLabelsWidth, headerHeight/4, 0, 0.5)
}

func drawHourLabels(dc *gg.Context, l layout) {
	setFont(dc, hourFontSize, regular)
	dc.SetColor(hourLabelColor)
	for i := 0; i < l.hours.total(); i++ {
		y := headerHeight + float64(i)*l.cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", l.hours.start+i), leftLabelsWidth-10, y, 1, 0.5)
	}
}

func drawDay(dc *gg.Context, l layout, index int, d civil.Date, today bool) {
	x := l.columnX(index)

	switch {
	case today:
		dc.SetColor(todayBgColor)
	case index%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, headerHeight, l.dayWidth, imageHeight-headerHeight)
	dc.Fill()

	setFont(dc, dayFontSize, bold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(fmt.Sprintf("%02d.%02d", d.Day, int(d.Month)), x+l.dayWidth/2, headerHeight, 0.5, -1)
	dc.DrawStringAnchored(formatting.GetWeekdayShort(d.In(time.UTC).Weekday()), x+l.dayWidth/2, headerHeight, 0.5, -0.2)

	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= l.hours.total(); i++ {
		y := headerHeight + float64(i)*l.cellHeight
		dc.DrawLine(x, y, x+l.dayWidth, y)
		dc.Stroke()
	}
}

// drawExceptions затеняет закрытую часть дня
func drawExceptions(dc *gg.Context, l layout, index int, d civil.Date, exceptions []*model.SlotException) {
	for _, e := range exceptions {
		if e.Date != d {
			continue
		}
		bottom := float64(imageHeight)
		if !e.FullDay && e.UntilTime != nil {
			bottom = l.y(l.zone.At(d, *e.UntilTime))
		}
		top := float64(headerHeight)
		if bottom <= top {
			continue
		}
		dc.SetColor(blockedColor)
		dc.DrawRectangle(l.columnX(index), top, l.dayWidth, bottom-top)
		dc.Fill()
	}
}

func drawEntry(dc *gg.Context, l layout, index int, e service.WeekEntry) {
	x := l.columnX(index) + dayPaddingX
	top := l.y(e.Start)
	height := float64(e.Duration.Minutes()) / 60 * l.cellHeight
	if height < minEntryHeight {
		height = minEntryHeight
	}
	width := l.dayWidth - dayPaddingX*2
	fill := entryColor(e.Kind)

	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(x+shadowOffset, top+2+shadowOffset, width, height-4, entryRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, top+2, width, height-4, entryRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, top+2, width, height-4, entryRadius)
	dc.Stroke()

	setFont(dc, entryFontSize, bold)
	dc.SetColor(entryTextColor)
	dc.DrawStringAnchored(formatting.FormatTime(e.Start, l.zone), x+8, top+18, 0, 0)

	if e.Lesson != nil && height > 40 {
		setFont(dc, entryFontSize-2, regular)
		dc.DrawStringAnchored(truncate(lessonLabel(e.Lesson), maxLabelRunes), x+8, top+36, 0, 0)
	}
}

func lessonLabel(l *model.Lesson) string {
	if l.Student != nil {
		return l.Student.Name()
	}
	return fmt.Sprintf("ученик %d", l.StudentID)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func entryColor(kind service.WeekEntryKind) color.RGBA {
	switch kind {
	case service.WeekEntryPending:
		return pendingColor
	case service.WeekEntryConfirmed:
		return confirmedColor
	default:
		return freeColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawNowLine отмечает текущее время в колонке сегодняшнего дня
func drawNowLine(dc *gg.Context, l layout, now time.Time) {
	local := l.zone.Local(now)
	if local.Hour() < l.hours.start || local.Hour() > l.hours.end {
		return
	}
	y := l.y(now)
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(l.columnX(0), y, l.columnX(1), y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, l layout, days int) {
	x := l.columnX(days) + 10
	y := float64(imageHeight) - 130

	items := []struct {
		label string
		clr   color.Color
	}{
		{"Свободно", freeColor},
		{"Заявка", pendingColor},
		{"Подтверждено", confirmedColor},
		{"Закрыто", blockedColor},
	}

	const boxW, boxH = 20.0, 14.0
	setFont(dc, legendFontSize, regular)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2+1, 0, 0.2)
		y += boxH + 14
	}
}
