// feedctl talks to a running message feed node: it manages keys, creates
// feeds, posts messages and reads feeds back.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/cometbft/cometbft/types"
	"github.com/urfave/cli/v2"

	forum "github.com/alijnmerchant21/messagefeed/abci"
	"github.com/alijnmerchant21/messagefeed/model"
)

var nodeFlag = &cli.StringFlag{
	Name:    "node",
	Usage:   "CometBFT RPC address",
	Value:   "tcp://127.0.0.1:26657",
	EnvVars: []string{"FEEDCTL_NODE"},
}

func main() {
	app := &cli.App{
		Name:  "feedctl",
		Usage: "message feed client",
		Flags: []cli.Flag{nodeFlag},
		Commands: []*cli.Command{
			keygenCmd,
			newFeedCmd,
			joinCmd,
			postCmd,
			feedCmd,
			accountCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func client(cctx *cli.Context) (*rpchttp.HTTP, error) {
	return rpchttp.New(cctx.String(nodeFlag.Name), "/websocket")
}

func broadcast(cctx *cli.Context, tx []byte) error {
	c, err := client(cctx)
	if err != nil {
		return err
	}
	res, err := c.BroadcastTxCommit(cctx.Context, types.Tx(tx))
	if err != nil {
		return err
	}
	if res.CheckTx.Code != forum.CodeTypeOK {
		return fmt.Errorf("check failed (code %d): %s", res.CheckTx.Code, res.CheckTx.Log)
	}
	if res.TxResult.Code != forum.CodeTypeOK {
		return fmt.Errorf("delivery failed (code %d): %s", res.TxResult.Code, res.TxResult.Log)
	}
	return nil
}

func query(cctx *cli.Context, path string, id model.Identity) ([]byte, error) {
	c, err := client(cctx)
	if err != nil {
		return nil, err
	}
	res, err := c.ABCIQuery(cctx.Context, path, id.Bytes())
	if err != nil {
		return nil, err
	}
	if res.Response.Code != forum.CodeTypeOK {
		return nil, fmt.Errorf("query %s failed (code %d): %s", path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

var keygenFlags struct {
	out string
}

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "generate a key file for a user or a feed root",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "out",
			Usage:       "key file to write",
			Required:    true,
			Destination: &keygenFlags.out,
		},
	},
	Action: func(cctx *cli.Context) error {
		s, err := generateSigner()
		if err != nil {
			return err
		}
		if err := saveKey(keygenFlags.out, s); err != nil {
			return err
		}
		fmt.Println(s.id)
		return nil
	},
}

var newFeedFlags struct {
	userKey string
	rootKey string
	text    string
}

var newFeedCmd = &cli.Command{
	Name:  "new-feed",
	Usage: "create a user and a feed with its first message",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "user-key", Required: true, Destination: &newFeedFlags.userKey},
		&cli.StringFlag{Name: "root-key", Required: true, Destination: &newFeedFlags.rootKey},
		&cli.StringFlag{Name: "text", Value: "First post! 💫", Destination: &newFeedFlags.text},
	},
	Action: func(cctx *cli.Context) error {
		user, err := loadKey(newFeedFlags.userKey)
		if err != nil {
			return err
		}
		root, err := loadKey(newFeedFlags.rootKey)
		if err != nil {
			return err
		}
		tx, err := buildNewFeed(user, root, newFeedFlags.text)
		if err != nil {
			return err
		}
		if err := broadcast(cctx, tx); err != nil {
			return err
		}
		fmt.Println("feed root:", root.id)
		return nil
	},
}

var joinFlags struct {
	userKey string
	rootKey string
}

var joinCmd = &cli.Command{
	Name:  "join",
	Usage: "create a user that may post into the feed of the given root",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "user-key", Required: true, Destination: &joinFlags.userKey},
		&cli.StringFlag{Name: "root-key", Required: true, Destination: &joinFlags.rootKey},
	},
	Action: func(cctx *cli.Context) error {
		user, err := loadKey(joinFlags.userKey)
		if err != nil {
			return err
		}
		root, err := loadKey(joinFlags.rootKey)
		if err != nil {
			return err
		}
		tx, err := buildJoin(user, root)
		if err != nil {
			return err
		}
		if err := broadcast(cctx, tx); err != nil {
			return err
		}
		fmt.Println("user:", user.id)
		return nil
	},
}

var postFlags struct {
	userKey string
	prev    string
	ban     string
}

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "append a message after --prev",
	ArgsUsage: "<text>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "user-key", Required: true, Destination: &postFlags.userKey},
		&cli.StringFlag{Name: "prev", Usage: "last message of the feed", Required: true, Destination: &postFlags.prev},
		&cli.StringFlag{Name: "ban", Usage: "user to ban", Destination: &postFlags.ban},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one argument: the message text")
		}
		user, err := loadKey(postFlags.userKey)
		if err != nil {
			return err
		}
		prev, err := model.ParseIdentity(postFlags.prev)
		if err != nil {
			return err
		}
		var ban *model.Identity
		if postFlags.ban != "" {
			id, err := model.ParseIdentity(postFlags.ban)
			if err != nil {
				return err
			}
			ban = &id
		}
		msg, err := generateSigner()
		if err != nil {
			return err
		}
		tx, err := buildPost(user, msg, prev, ban, cctx.Args().First())
		if err != nil {
			return err
		}
		if err := broadcast(cctx, tx); err != nil {
			return err
		}
		fmt.Println("message:", msg.id)
		return nil
	},
}

var feedFlags struct {
	root string
}

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "print a feed starting at --root",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "root", Required: true, Destination: &feedFlags.root},
	},
	Action: func(cctx *cli.Context) error {
		root, err := model.ParseIdentity(feedFlags.root)
		if err != nil {
			return err
		}
		value, err := query(cctx, "/feed", root)
		if err != nil {
			return err
		}
		var messages []model.Message
		if err := json.Unmarshal(value, &messages); err != nil {
			return err
		}
		fmt.Println("Message Feed")
		fmt.Println("------------")
		for i, m := range messages {
			fmt.Printf("Message #%d %s from %s: %s\n", i, m.ID, m.From, m.Text)
		}
		return nil
	},
}

var accountCmd = &cli.Command{
	Name:      "account",
	Usage:     "print the decoded state of an account",
	ArgsUsage: "<identity>",
	Action: func(cctx *cli.Context) error {
		id, err := model.ParseIdentity(cctx.Args().First())
		if err != nil {
			return err
		}
		value, err := query(cctx, "/account", id)
		if err != nil {
			return err
		}
		if u, err := model.DecodeUser(value); err == nil {
			fmt.Printf("user %s banned=%t creator=%s\n", id, u.Banned, u.Creator)
			return nil
		}
		m, err := model.DecodeMessage(value)
		if err != nil {
			return fmt.Errorf("account %s has an unknown layout (%d bytes)", id, len(value))
		}
		out, err := json.MarshalIndent(model.NewMessage(id, m), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
