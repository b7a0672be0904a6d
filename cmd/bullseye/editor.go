package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/ads-bsim/pkg/bullseye"
)

var (
	formats     = []string{bullseye.FormatDecimalMinutes, bullseye.FormatDMS}
	latitudes   = []string{"N", "S"}
	longitudes  = []string{"E", "W"}
	storeTimeout = 5 * time.Second
)

// Editor is a form for viewing and changing the saved bullseye.
type Editor struct {
	store bullseye.Store
	ref   bullseye.Reference

	app    *tview.Application
	form   *tview.Form
	status *tview.TextView
	logs   *tview.TextView
}

// NewEditor builds the form around ref.
func NewEditor(store bullseye.Store, ref bullseye.Reference) *Editor {
	e := &Editor{store: store, ref: ref}
	e.setupUI()
	return e
}

func (e *Editor) setupUI() {
	e.app = tview.NewApplication()

	e.status = tview.NewTextView().SetDynamicColors(true)
	e.status.SetBorder(true).SetTitle(" Bullseye ")

	e.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	e.logs.SetBorder(true).SetTitle(" Logs ")

	e.form = tview.NewForm()
	e.form.SetBorder(true).SetTitle(" Edit Bullseye ")
	e.buildForm()

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(e.form, 0, 6, true).
		AddItem(e.status, 4, 0, false).
		AddItem(e.logs, 0, 3, false)

	e.app.SetRoot(layout, true)
	e.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			e.app.Stop()
			return nil
		case tcell.KeyCtrlS:
			e.save()
			return nil
		}
		return event
	})

	e.showStatus()
}

// buildForm (re)creates the fields from e.ref.
func (e *Editor) buildForm() {
	e.form.Clear(true)

	e.form.AddDropDown("Format", formats, indexOf(formats, e.ref.Format), func(option string, _ int) {
		if option == e.ref.Format {
			return
		}
		converted, err := convertReference(e.ref, option)
		if err != nil {
			e.addLog("WARN", "Cannot convert: %v", err)
			e.ref.Format = option
			return
		}
		e.ref = converted
		// Refresh the text fields once the dropdown callback has returned
		go e.app.QueueUpdateDraw(e.buildForm)
	})
	e.form.AddDropDown("Latitude", latitudes, indexOf(latitudes, e.ref.LatDirection), func(option string, _ int) {
		e.ref.LatDirection = option
		e.showStatus()
	})
	e.form.AddInputField("Lat value", e.ref.Latitude, 16, nil, func(text string) {
		e.ref.Latitude = text
		e.showStatus()
	})
	e.form.AddDropDown("Longitude", longitudes, indexOf(longitudes, e.ref.LonDirection), func(option string, _ int) {
		e.ref.LonDirection = option
		e.showStatus()
	})
	e.form.AddInputField("Lon value", e.ref.Longitude, 16, nil, func(text string) {
		e.ref.Longitude = text
		e.showStatus()
	})

	e.form.AddButton("Save", e.save)
	e.form.AddButton("Reload", e.reload)
	e.form.AddButton("Quit", e.app.Stop)
}

func (e *Editor) save() {
	if err := e.ref.Validate(); err != nil {
		e.addLog("ERROR", "%v", err)
		e.showStatus()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Save(ctx, e.ref); err != nil {
		e.addLog("ERROR", "Save failed: %v", err)
		return
	}
	e.addLog("INFO", "Saved %s", e.ref)
	e.showStatus()
}

func (e *Editor) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	ref, err := e.store.Load(ctx)
	if err != nil {
		e.addLog("ERROR", "Load failed: %v", err)
		return
	}
	if ref == nil {
		e.addLog("WARN", "No bullseye saved yet")
		return
	}
	e.ref = *ref
	e.buildForm()
	e.addLog("INFO", "Loaded %s", e.ref)
	e.showStatus()
}

// showStatus renders the reference and its decimal position.
func (e *Editor) showStatus() {
	p, err := e.ref.Point()
	if err != nil {
		e.status.SetText(fmt.Sprintf("[yellow]%s[-]\n[red]%v[-]", e.ref, err))
		return
	}
	e.status.SetText(fmt.Sprintf("[yellow]%s[-]\n[gray]Decimal:[-] [white]%.6f, %.6f[-]", e.ref, p.Latitude, p.Longitude))
}

func (e *Editor) addLog(level, format string, args ...interface{}) {
	color := "white"
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	}
	fmt.Fprintf(e.logs, "[gray]%s[-] [%s]%-5s[-] %s\n",
		time.Now().Format("15:04:05"), color, level, fmt.Sprintf(format, args...))
}

// Run blocks until the editor is closed.
func (e *Editor) Run() error {
	return e.app.Run()
}

// convertReference re-renders ref in another entry format. The position
// must parse in the current format.
func convertReference(ref bullseye.Reference, format string) (bullseye.Reference, error) {
	p, err := ref.Point()
	if err != nil {
		return bullseye.Reference{}, err
	}
	return bullseye.NewReference(format, p)
}

func indexOf(options []string, value string) int {
	for i, o := range options {
		if o == value {
			return i
		}
	}
	return 0
}
