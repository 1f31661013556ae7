package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	hourPadding      = 1
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 16.0
	slotTimeFontSize   = 15.0
	legendItemFontSize = 13.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotFreeColor    = color.RGBA{133, 193, 85, 220}
	slotBookedColor  = color.RGBA{255, 182, 193, 255}
	slotBlockedColor = color.RGBA{158, 158, 158, 200}
	slotTextColor    = color.RGBA{20, 24, 28, 230}
	slotBookedText   = color.RGBA{120, 40, 50, 255}
	slotShadowColor  = color.RGBA{0, 0, 0, 20}
	legendItemColor  = color.RGBA{70, 74, 78, 220}
)

// Day слоты одного дня для отрисовки
type Day struct {
	Date  time.Time
	Slots []*model.TimeSlot
}

var ErrEmptyWeek = errors.New("render: no days to draw")

type fontStyle int

const (
	styleRegular fontStyle = iota
	styleBold
)

var (
	fontsOnce sync.Once
	fonts     map[fontStyle]*opentype.Font
)

func parseFonts() {
	fonts = make(map[fontStyle]*opentype.Font, 2)
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		fonts[styleRegular] = f
	}
	if f, err := opentype.Parse(gobold.TTF); err == nil {
		fonts[styleBold] = f
	}
}

// setFont выбирает шрифт или basicfont, если разбор не удался
func setFont(dc *gg.Context, size float64, style fontStyle) {
	fontsOnce.Do(parseFonts)

	if f, ok := fonts[style]; ok {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

type hourRange struct {
	start int
	end   int
}

func (h hourRange) total() int { return h.end - h.start }

// WeekImage рисует недельное расписание поля в PNG.
// now подсвечивает текущий день и время, если они попадают в неделю.
func WeekImage(title string, days []Day, now time.Time) ([]byte, error) {
	if len(days) == 0 {
		return nil, ErrEmptyWeek
	}

	hours := hourSpan(days)
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / len(days)
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total())

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	setFont(dc, titleFontSize, styleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)

	setFont(dc, hourLabelFontSize, styleRegular)
	dc.SetColor(hourLabelColor)
	for h := hours.start; h <= hours.end; h++ {
		y := float64(headerHeight) + float64(h-hours.start)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", h), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}

	today := model.DateOf(now)
	for i, day := range days {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		switch {
		case model.DateOf(day.Date).Equal(today):
			dc.SetColor(todayBgColor)
		case i%2 == 0:
			dc.SetColor(evenDayColor)
		default:
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
		dc.Fill()

		setFont(dc, dayFontSize, styleBold)
		dc.SetColor(textColor)
		dc.DrawStringAnchored(day.Date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
		dc.DrawStringAnchored(weekdayShort(day.Date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)

		dc.SetLineWidth(0.3)
		dc.SetColor(hourLineColor)
		for h := 0; h <= hours.total(); h++ {
			hy := y + float64(h)*cellHeight
			dc.DrawLine(x, hy, x+float64(dayWidth), hy)
			dc.Stroke()
		}

		for _, slot := range day.Slots {
			drawSlot(dc, slot, x, y, dayWidth, hours, cellHeight)
		}

		if model.DateOf(day.Date).Equal(today) {
			drawNowLine(dc, now, x, dayWidth, hours, cellHeight)
		}
	}

	drawLegend(dc, float64(leftLabelsWidth+len(days)*dayWidth+10))

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// hourSpan границы в часах по всем слотам недели с запасом
func hourSpan(days []Day) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range days {
		for _, slot := range day.Slots {
			minHour = min(minHour, slot.StartTime.Hour())
			end := slot.EndTime.Hour()
			if slot.EndTime.Minute() > 0 {
				end++
			}
			maxHour = max(maxHour, end)
		}
	}

	if minHour >= maxHour {
		return hourRange{start: 8, end: 22}
	}
	return hourRange{start: max(0, minHour-hourPadding), end: min(24, maxHour+hourPadding)}
}

func drawSlot(dc *gg.Context, slot *model.TimeSlot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(slot.StartTime) / 60
	endHour := float64(slot.EndTime) / 60

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := max((endHour-startHour)*cellHeight, minSlotHeight)
	slotWidth := float64(dayWidth) - dayPaddingX*2

	fill := slotColor(slot.Status)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	text := slotTextColor
	if slot.Status == model.SlotStatusBooked {
		text = slotBookedText
	}

	setFont(dc, slotTimeFontSize, styleRegular)
	dc.SetColor(text)
	dc.DrawStringAnchored(slot.StartTime.String()+"-"+slot.EndTime.String(), x+dayPaddingX+6, slotY+18, 0, 0)
}

func drawNowLine(dc *gg.Context, now time.Time, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(x, lineY, x+float64(dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, legendX float64) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"Свободно", slotFreeColor},
		{"Забронировано", slotBookedColor},
		{"Закрыто", slotBlockedColor},
	}

	const boxW, boxH = 20.0, 14.0
	itemY := float64(imageHeight) - 90

	setFont(dc, legendItemFontSize, styleRegular)
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(legendX, itemY, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, itemY+boxH/2+1, 0, 0.2)
		itemY += boxH + 14
	}
}

func slotColor(status model.SlotStatus) color.RGBA {
	switch status {
	case model.SlotStatusBooked:
		return slotBookedColor
	case model.SlotStatusBlocked:
		return slotBlockedColor
	default:
		return slotFreeColor
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

func weekdayShort(day time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[day]
}
