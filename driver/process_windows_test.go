package driver

func processExists(pid int) bool {
	return false
}
