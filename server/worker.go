package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"bankd/bank"
	"bankd/internal/metrics"
	"bankd/protocol"
	"bankd/util"
)

// Worker serves one client connection: read a line, parse, dispatch
// through its session, answer with one response line, repeat until
// exit or disconnect.  Workers never touch each other's state; all
// coordination goes through the store's locks.
type Worker struct {
	conn    net.Conn
	session *bank.Session
	logger  *util.Logger
	metrics *metrics.Collector
}

func newWorker(conn net.Conn, session *bank.Session, logger *util.Logger, collector *metrics.Collector) *Worker {
	return &Worker{
		conn:    conn,
		session: session,
		logger:  logger,
		metrics: collector,
	}
}

// Run drives the worker loop.  Whatever ends the loop — exit command,
// client EOF, a write error, or server shutdown — the deferred close
// releases any held session lock.
func (w *Worker) Run(ctx context.Context) {
	w.metrics.ConnectionOpened()
	defer w.metrics.ConnectionClosed()
	defer w.conn.Close()
	defer func() {
		if w.session.State() == bank.StateActive {
			w.metrics.SessionEnded()
		}
		w.session.Close()
	}()

	reader := protocol.NewLineReader(w.conn)
	writer := bufio.NewWriter(w.conn)

	for {
		if err := w.writeLine(writer, promptText); err != nil {
			w.logError(err)
			return
		}

		line, err := reader.ReadLine()
		switch {
		case err == nil:
		case errors.Is(err, protocol.ErrLineTooLong):
			w.metrics.CommandRejected()
			if werr := w.writeLine(writer, errorLine(err)+"\n"); werr != nil {
				w.logError(werr)
				return
			}
			continue
		case errors.Is(err, io.EOF):
			// Abrupt disconnect: treated exactly like exit.
			w.logger.Verbose("client %s disconnected", w.conn.RemoteAddr())
			return
		default:
			w.logError(err)
			return
		}

		response, terminate := w.dispatch(ctx, line)
		if response != "" {
			if err := w.writeLine(writer, response+"\n"); err != nil {
				w.logError(err)
				return
			}
		}
		if terminate {
			return
		}
	}
}

// dispatch parses and executes one request line, returning the
// response line and whether the connection should terminate.
func (w *Worker) dispatch(ctx context.Context, line string) (string, bool) {
	cmd, err := protocol.Parse(line)
	if err != nil {
		w.metrics.CommandRejected()
		return errorLine(err), false
	}

	w.logger.Debug("client %s: %s", w.conn.RemoteAddr(), cmd.Verb)

	switch cmd.Verb {
	case protocol.VerbOpen:
		if err := w.session.Open(cmd.Arg); err != nil {
			return w.reject(err), false
		}
		w.logger.Info("account %q opened by %s", cmd.Arg, w.conn.RemoteAddr())
		w.metrics.CommandProcessed()
		return fmt.Sprintf("Account successfully opened for: %s", cmd.Arg), false

	case protocol.VerbStart:
		if err := w.session.Start(ctx, cmd.Arg); err != nil {
			if ctx.Err() != nil {
				// Shutdown interrupted the blocking acquire.
				return "", true
			}
			return w.reject(err), false
		}
		w.logger.Info("session started on %q by %s", cmd.Arg, w.conn.RemoteAddr())
		w.metrics.SessionStarted()
		w.metrics.CommandProcessed()
		return fmt.Sprintf("Session starting for: %s", cmd.Arg), false

	case protocol.VerbCredit:
		amt, err := protocol.ParseAmount(cmd.Arg)
		if err != nil {
			return w.reject(err), false
		}
		balance, err := w.session.Credit(amt)
		if err != nil {
			return w.reject(err), false
		}
		w.metrics.CommandProcessed()
		return fmt.Sprintf("Credit successful, current balance: %s", balance.StringFixed(2)), false

	case protocol.VerbDebit:
		amt, err := protocol.ParseAmount(cmd.Arg)
		if err != nil {
			return w.reject(err), false
		}
		balance, err := w.session.Debit(amt)
		if err != nil {
			return w.reject(err), false
		}
		w.metrics.CommandProcessed()
		return fmt.Sprintf("Debit successful, current balance: %s", balance.StringFixed(2)), false

	case protocol.VerbBalance:
		balance, err := w.session.Balance()
		if err != nil {
			return w.reject(err), false
		}
		w.metrics.CommandProcessed()
		return fmt.Sprintf("Current balance: %s", balance.StringFixed(2)), false

	case protocol.VerbFinish:
		name, _ := w.session.AccountName()
		if err := w.session.Finish(); err != nil {
			return w.reject(err), false
		}
		w.logger.Info("session on %q finished by %s", name, w.conn.RemoteAddr())
		w.metrics.SessionEnded()
		w.metrics.CommandProcessed()
		return "Ending session now", false

	case protocol.VerbExit:
		// The deferred session close releases any held lock.
		w.metrics.CommandProcessed()
		return "Exiting. Thank you for using the bank.", true

	default:
		w.metrics.CommandRejected()
		return errorLine(protocol.ErrUnknownCommand), false
	}
}

// reject counts a protocol-level rejection and renders its line.  The
// session state is untouched by rejected commands.
func (w *Worker) reject(err error) string {
	w.metrics.CommandRejected()
	return errorLine(err)
}

func (w *Worker) writeLine(writer *bufio.Writer, text string) error {
	if _, err := writer.WriteString(text); err != nil {
		return err
	}
	return writer.Flush()
}

func (w *Worker) logError(err error) {
	if errors.Is(err, net.ErrClosed) {
		return
	}
	w.metrics.RecordError(err.Error())
	w.logger.Warn("client %s: %v", w.conn.RemoteAddr(), err)
}
