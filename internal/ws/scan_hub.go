package ws

import "time"

// ScanEvent is pushed to connected admin dashboards for every admission
// attempt processed at the door.
type ScanEvent struct {
	TicketID  uint   `json:"ticket_id"`
	EventID   uint   `json:"event_id"`
	ScannerID uint   `json:"scanner_id"`
	Result    string `json:"result"`
	At        int64  `json:"at"`
}

// ScanHub streams live scan results to back-office viewers.
type ScanHub struct {
	*Hub
}

func NewScanHub() *ScanHub {
	return &ScanHub{Hub: NewHub()}
}

func (s *ScanHub) BroadcastScan(ticketID, eventID, scannerID uint, result string) {
	s.BroadcastAll(ScanEvent{
		TicketID:  ticketID,
		EventID:   eventID,
		ScannerID: scannerID,
		Result:    result,
		At:        time.Now().Unix(),
	})
}
