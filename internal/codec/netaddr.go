package codec

import (
	"net"

	"github.com/sharksforarms/deku/internal/bitio"
	"github.com/sharksforarms/deku/internal/dekuerr"
)

// ReadIPv4 reads a 4-byte net.IP, the fixed-width address family the
// reference implementation derives for std::net::Ipv4Addr.
func ReadIPv4(r *bitio.Reader) (net.IP, error) {
	b, err := r.ReadBytesAligned(4)
	if err != nil {
		return nil, err
	}
	return net.IP(b), nil
}

func WriteIPv4(w *bitio.Writer, ip net.IP) error {
	v4 := ip.To4()
	if v4 == nil {
		return dekuerr.NewInvalidParam("ipv4: %v is not a 4-byte address", ip)
	}
	return w.WriteBytesAligned(v4)
}

// ReadIPv6 reads a 16-byte net.IP.
func ReadIPv6(r *bitio.Reader) (net.IP, error) {
	b, err := r.ReadBytesAligned(16)
	if err != nil {
		return nil, err
	}
	return net.IP(b), nil
}

func WriteIPv6(w *bitio.Writer, ip net.IP) error {
	v6 := ip.To16()
	if v6 == nil {
		return dekuerr.NewInvalidParam("ipv6: %v is not a valid address", ip)
	}
	return w.WriteBytesAligned(v6)
}

// ReadMACAddr reads a 6-byte net.HardwareAddr.
func ReadMACAddr(r *bitio.Reader) (net.HardwareAddr, error) {
	b, err := r.ReadBytesAligned(6)
	if err != nil {
		return nil, err
	}
	return net.HardwareAddr(b), nil
}

func WriteMACAddr(w *bitio.Writer, mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return dekuerr.NewInvalidParam("mac: %v is not a 6-byte hardware address", mac)
	}
	return w.WriteBytesAligned(mac)
}
