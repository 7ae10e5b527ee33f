package protocol

// switchBusMode ensures the session is in target bus mode, initializing
// the backend only when a transition is actually needed. It reports
// whether the session is now in target: false means target is not in
// SupportedBusMask, or the backend's Init* call failed — in either case
// the caller must NAK without touching the data/control lines further.
func (s *Session) switchBusMode(target BusMode) bool {
	if s.BusMode == target {
		return true
	}
	if s.SupportedBusMask&uint8(target) == 0 {
		return false
	}
	var err error
	switch target {
	case BusModeParallel:
		err = s.Programmer.InitParallel()
	case BusModeSPI:
		err = s.Programmer.InitSpi()
	default:
		return false
	}
	if err != nil {
		return false
	}
	s.BusMode = target
	return true
}
