package ui

import (
	"net/http"
	"time"
)

type activityRow struct {
	At   time.Time
	Type string
	Name string
	Note string
}

func (h *Handler) activityPage(w http.ResponseWriter, r *http.Request) {
	var rows []activityRow
	if h.Activity != nil {
		ev := h.Activity.List()
		rows = make([]activityRow, 0, len(ev))
		for _, e := range ev {
			rows = append(rows, activityRow{
				At:   e.At,
				Type: string(e.Type),
				Name: e.Name,
				Note: e.Note,
			})
		}
	}

	vm := h.newViewModel("Activity")
	vm.User = h.getUser(r)
	vm.Data = rows
	h.render(w, "activity.html", vm)
}
