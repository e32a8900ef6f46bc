package btproto

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// PSMControl is the HID Control channel PSM.
	PSMControl = 17
	// PSMInterrupt is the HID Interrupt channel PSM.
	PSMInterrupt = 19
)

// bindL2CAP creates, binds, and listens on a raw AF_BLUETOOTH/L2CAP socket
// for the given PSM, returning it wrapped as an *os.File so reads/writes get
// the runtime-integrated poller (deadlines, cancelable blocking I/O).
func bindL2CAP(psm uint16) (*os.File, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if err != nil {
		return nil, fmt.Errorf("l2cap socket: %w", err)
	}

	addr := &unix.SockaddrL2{PSM: psm, Addr: [6]uint8{}, AddrType: 0}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		if err == unix.EADDRINUSE {
			return nil, fmt.Errorf(
				"L2CAP PSM %d already in use - ensure bluetoothd runs with "+
					"--noplugin=input (edit bluetooth.service, add --noplugin=input to ExecStart)", psm)
		}
		return nil, fmt.Errorf("l2cap bind psm %d: %w", psm, err)
	}

	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("l2cap listen psm %d: %w", psm, err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("l2cap nonblock psm %d: %w", psm, err)
	}

	return os.NewFile(uintptr(fd), fmt.Sprintf("l2cap-psm-%d", psm)), nil
}

// acceptL2CAP blocks until a peer connects, returning the accepted
// connection as an *os.File. Cancelable via the listener's deadline.
func acceptL2CAP(listener *os.File) (*os.File, error) {
	raw, err := listener.SyscallConn()
	if err != nil {
		return nil, err
	}

	var clientFd int
	var acceptErr error
	err = raw.Read(func(fd uintptr) bool {
		clientFd, _, acceptErr = unix.Accept(int(fd))
		if acceptErr == unix.EAGAIN {
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if acceptErr != nil {
		return nil, acceptErr
	}
	if err := unix.SetNonblock(clientFd, true); err != nil {
		unix.Close(clientFd)
		return nil, err
	}

	return os.NewFile(uintptr(clientFd), "l2cap-conn"), nil
}
