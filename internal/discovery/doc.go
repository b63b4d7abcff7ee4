// Package discovery advertises and finds provisioning devices over mDNS.
//
// A device in provisioning mode registers its portal as an "_http._tcp"
// service with a TXT record of "service=wifiprov". The Advertiser follows the
// state machine: it registers on entering Provisioning and withdraws the
// registration on leaving it.
//
// # Scanning
//
//	scanner := discovery.NewScanner()
//	devices, err := scanner.ScanForDevicesWithContext(ctx)
//	for _, d := range devices {
//	    fmt.Println(d.Instance, d.BaseURL())
//	}
//
// Entries without the wifiprov TXT marker are ignored, so other HTTP
// services on the segment do not show up.
//
// # Network Requirements
//
// Multicast must be allowed on the interface (UDP port 5353) and the scanner
// must share a network segment with the device. When the device runs its own
// access point the scanning host has to join that network first.
package discovery
