// Package provclient talks to a provisioning device from another host.
//
// Client submits credentials to the portal a device serves in access-point
// mode, the same request a browser sends from the form:
//
//	client := provclient.NewClient("192.168.4.1", 80)
//	ack, err := client.Submit(ctx, credstore.Pair{NetworkName: "HomeNet", Secret: "hunter22"})
//	if err != nil {
//	    fmt.Println(provclient.GetTroubleshootingHint(err))
//	}
//
// The form body is built in a fixed field order (ssid first) and checked
// against the portal's body limit before sending, since the portal rejects
// larger bodies outright.
//
// FetchStatus and Watch read the monitor endpoint of a running service.
//
// # Error Handling
//
// All client errors are *DeviceError values carrying a category and a
// retryable flag. Network failures and 5xx responses are retried with
// exponential backoff; validation and 4xx failures are not.
package provclient
