package hostmdns

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"

	"golang.org/x/net/dns/dnsmessage"
)

// cacheFlush is the top bit of the class field; our records are unique to
// this host.
const cacheFlush = 1 << 15

var (
	errNotDNS    = errors.New("not a DNS message")
	errMalformed = errors.New("malformed DNS message")
)

// codecFaultError is a panic raised inside the DNS codec while decoding.
type codecFaultError struct {
	value any
}

func (e *codecFaultError) Error() string {
	return fmt.Sprintf("dns codec fault: %v", e.value)
}

// query is the part of an inbound message the responder looks at.
type query struct {
	header    dnsmessage.Header
	questions []dnsmessage.Question
}

func (q *query) names() []string {
	names := make([]string, len(q.questions))
	for i, question := range q.questions {
		names[i] = question.Name.String()
	}
	return names
}

// SetDebug makes responders created afterwards log at debug level.
func SetDebug() {
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// decodeQuery parses a whole datagram. Responses are returned without their
// questions since nothing looks at them.
func decodeQuery(packet []byte) (q *query, err error) {
	defer func() {
		if v := recover(); v != nil {
			q, err = nil, &codecFaultError{value: v}
		}
	}()

	var p dnsmessage.Parser
	header, err := p.Start(packet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotDNS, err)
	}
	if header.Response {
		return &query{header: header}, nil
	}

	questions, err := p.AllQuestions()
	if err != nil {
		return nil, fmt.Errorf("%w: questions: %v", errMalformed, err)
	}
	if err := p.SkipAllAnswers(); err != nil {
		return nil, fmt.Errorf("%w: answers: %v", errMalformed, err)
	}
	if err := p.SkipAllAuthorities(); err != nil {
		return nil, fmt.Errorf("%w: authorities: %v", errMalformed, err)
	}
	if err := p.SkipAllAdditionals(); err != nil {
		return nil, fmt.Errorf("%w: additionals: %v", errMalformed, err)
	}
	return &query{header: header, questions: questions}, nil
}

// buildResponse encodes the answer for rec. A nil q makes an unsolicited
// announcement with ID 0 and no question section.
func buildResponse(rec Record, q *query) ([]byte, error) {
	host, err := hostName(rec.Host)
	if err != nil {
		return nil, err
	}

	msg := dnsmessage.Message{
		Header: dnsmessage.Header{
			Response:      true,
			OpCode:        0,
			Authoritative: true,
			RCode:         dnsmessage.RCodeSuccess,
		},
		Answers: []dnsmessage.Resource{buildARecord(host, rec.IPv4, rec.TTL)},
	}
	if q != nil {
		msg.Header.ID = q.header.ID
		if len(q.questions) > 0 {
			msg.Questions = []dnsmessage.Question{q.questions[0]}
		}
	}
	if rec.IPv6.IsValid() {
		msg.Additionals = append(msg.Additionals, buildAAAARecord(host, rec.IPv6, rec.TTL))
	}

	packed, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to pack response for %q: %w", rec.Host, err)
	}
	return packed, nil
}

func hostName(host string) (dnsmessage.Name, error) {
	if !strings.HasSuffix(host, ".") {
		host += "."
	}
	name, err := dnsmessage.NewName(host)
	if err != nil {
		return dnsmessage.Name{}, fmt.Errorf("invalid hostname %q: %w", host, err)
	}
	return name, nil
}

func buildARecord(host dnsmessage.Name, ip netip.Addr, ttl uint32) dnsmessage.Resource {
	return dnsmessage.Resource{
		Header: dnsmessage.ResourceHeader{
			Name:  host,
			Type:  dnsmessage.TypeA,
			Class: dnsmessage.ClassINET | cacheFlush,
			TTL:   ttl,
		},
		Body: &dnsmessage.AResource{
			A: ip.As4(),
		},
	}
}

func buildAAAARecord(host dnsmessage.Name, ip netip.Addr, ttl uint32) dnsmessage.Resource {
	return dnsmessage.Resource{
		Header: dnsmessage.ResourceHeader{
			Name:  host,
			Type:  dnsmessage.TypeAAAA,
			Class: dnsmessage.ClassINET | cacheFlush,
			TTL:   ttl,
		},
		Body: &dnsmessage.AAAAResource{
			AAAA: ip.As16(),
		},
	}
}

// validate normalises a record before it is stored.
func (rec *Record) validate() error {
	if strings.TrimSuffix(rec.Host, ".") == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidRecord)
	}
	rec.IPv4 = rec.IPv4.Unmap()
	if !rec.IPv4.Is4() {
		return fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidRecord, rec.IPv4)
	}
	if rec.IPv6.IsValid() && (!rec.IPv6.Is6() || rec.IPv6.Is4In6()) {
		return fmt.Errorf("%w: %q is not an IPv6 address", ErrInvalidRecord, rec.IPv6)
	}
	if _, err := buildResponse(*rec, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
