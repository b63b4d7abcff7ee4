package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/wifiprov/internal/credstore"
	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/machine"
)

// RenderSnapshot renders the machine status as a detail box
func RenderSnapshot(snap machine.Snapshot, width int) string {
	address := "-"
	if snap.Status.LastAddress.IsValid() {
		address = snap.Status.LastAddress.String()
	}
	connected := "no"
	if snap.Status.Connected {
		connected = "yes"
	}

	lines := []string{
		"",
		"   " + StateStyle(snap.State).Render(snap.State.String()),
		"",
	}
	lines = append(lines, renderDetails(map[string]string{
		"Radio mode": snap.Mode,
		"Connected":  connected,
		"Address":    address,
		"Since":      formatSince(snap.Since),
	})...)
	lines = append(lines, "")

	return HeaderBorderStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderTransition renders one state change as a single line
func RenderTransition(t machine.Transition) string {
	line := fmt.Sprintf("%s  %s %s %s",
		MutedStyle.Render(t.At.Format("15:04:05")),
		StateStyle(t.From).Render(t.From.String()),
		MutedStyle.Render(ArrowMarker),
		StateStyle(t.To).Render(t.To.String()),
	)
	if t.Reason != "" {
		line += MutedStyle.Render("  (" + t.Reason + ")")
	}
	if t.Address.IsValid() {
		line += "  " + t.Address.String()
	}
	return line
}

// RenderCredentials renders a stored pair without its secret
func RenderCredentials(pair credstore.Pair, ok bool, width int) string {
	if !ok {
		lines := []string{
			"",
			"   " + StateStyle(machine.StateProvisioning).Render("No credentials stored"),
			"",
			MutedStyle.Render("   The device will start its access point and portal."),
			"",
		}
		return HeaderBorderStyle(width).Render(strings.Join(lines, "\n"))
	}

	secret := "(open network)"
	if pair.Secret != "" {
		secret = fmt.Sprintf("%d bytes", len(pair.Secret))
	}
	return RenderSuccessBox("Credentials stored", map[string]string{
		"Network":  pair.NetworkName,
		"Password": secret,
	}, width)
}

// RenderDevices renders a discovered device table
func RenderDevices(devices []*discovery.Device, width int) string {
	if len(devices) == 0 {
		return HeaderBorderStyle(width).Render("\n" + MutedStyle.Render("   No provisioning devices found.") + "\n")
	}

	lines := []string{""}
	for _, d := range devices {
		lines = append(lines,
			"   "+StateStyle(machine.StateProvisioning).Render(d.Instance),
			"   "+MutedStyle.Render(d.Hostname)+"  "+d.BaseURL(),
			"",
		)
	}
	return HeaderBorderStyle(width).Render(strings.Join(lines, "\n"))
}

func formatSince(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339) + " (" + time.Since(t).Round(time.Second).String() + " ago)"
}
