package site

// pageTemplate is the html/template shell for every page. The rendered
// markdown is appended into #content after the widget is bootstrapped.
const pageTemplate = `<!DOCTYPE html>
<html lang="{{.HTMLLang}}" data-base="{{.Base}}" data-theme="{{.Appearance}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{if .Title}}{{.Title}} | {{end}}{{.SiteTitle}}</title>
  {{- if .Description}}
  <meta name="description" content="{{.Description}}">
  {{- end}}
  <link rel="stylesheet" href="{{.Base}}style.css">
</head>
<body>
  <header class="navbar">
    <button class="menu-toggle" id="menu-toggle" aria-label="Toggle sidebar">
      <svg width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
        <line x1="3" y1="6" x2="21" y2="6"/><line x1="3" y1="12" x2="21" y2="12"/><line x1="3" y1="18" x2="21" y2="18"/>
      </svg>
    </button>
    <a class="navbar-title" href="{{.Base}}">{{.SiteTitle}}</a>
    <div class="navbar-search">
      <input type="text" id="search-input" placeholder="搜索" autocomplete="off">
      <div class="search-results" id="search-results"></div>
    </div>
    <nav class="navbar-links">
      {{- range .Nav}}
      <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Text}}</a>
      {{- end}}
    </nav>
    <select id="language-select" class="language-select" aria-label="Wowhead language">
      {{- range .Languages}}
      <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
      {{- end}}
    </select>
    <button class="theme-toggle" id="theme-toggle" aria-label="Toggle theme">
      <svg class="sun-icon" width="18" height="18" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
        <circle cx="12" cy="12" r="5"/><line x1="12" y1="1" x2="12" y2="3"/><line x1="12" y1="21" x2="12" y2="23"/><line x1="1" y1="12" x2="3" y2="12"/><line x1="21" y1="12" x2="23" y2="12"/>
      </svg>
      <svg class="moon-icon" width="18" height="18" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
        <path d="M21 12.79A9 9 0 1 1 11.21 3 7 7 0 0 0 21 12.79z"/>
      </svg>
    </button>
    {{- range .SocialLinks}}
    <a class="social-link" href="{{.Link}}" aria-label="{{.Icon}}" target="_blank" rel="noopener">{{.Icon}}</a>
    {{- end}}
  </header>
  <aside class="sidebar" id="sidebar">
    {{.Sidebar}}
  </aside>
  <div class="sidebar-overlay" id="sidebar-overlay"></div>
  <main class="content">
    <article class="page-content" id="content"></article>
  </main>
  <script src="{{.Base}}script.js"></script>
</body>
</html>`

// cssContent is the stylesheet shared by every page.
const cssContent = `:root {
  --bg: #ffffff;
  --bg-soft: #f6f6f7;
  --bg-sidebar: #f6f6f7;
  --text: #213547;
  --text-muted: #6b7280;
  --border: #e2e2e3;
  --accent: #c9a227;
  --accent-soft: rgba(201, 162, 39, 0.14);
  --code-bg: #f1f1f2;
  --navbar-height: 56px;
  --sidebar-width: 272px;
  --content-max-width: 820px;
}

[data-theme="dark"] {
  --bg: #1b1b1f;
  --bg-soft: #202127;
  --bg-sidebar: #161618;
  --text: #dfdfd6;
  --text-muted: #98989f;
  --border: #2e2e32;
  --accent: #f8b700;
  --accent-soft: rgba(248, 183, 0, 0.16);
  --code-bg: #161618;
}

* { box-sizing: border-box; }

html, body {
  margin: 0;
  background: var(--bg);
  color: var(--text);
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
  line-height: 1.7;
}

a { color: var(--accent); text-decoration: none; }
a:hover { text-decoration: underline; }

/* Navbar */
.navbar {
  position: fixed;
  top: 0; left: 0; right: 0;
  height: var(--navbar-height);
  display: flex;
  align-items: center;
  gap: 16px;
  padding: 0 24px;
  background: var(--bg);
  border-bottom: 1px solid var(--border);
  z-index: 20;
}
.navbar-title { font-weight: 600; color: var(--text); white-space: nowrap; }
.navbar-links { display: flex; gap: 16px; margin-left: auto; }
.navbar-links a { color: var(--text); font-size: 14px; }
.navbar-links a.active { color: var(--accent); }
.navbar-search { position: relative; }
.navbar-search input {
  width: 200px;
  padding: 6px 10px;
  border: 1px solid var(--border);
  border-radius: 6px;
  background: var(--bg-soft);
  color: var(--text);
}
.search-results {
  position: absolute;
  top: 38px; left: 0;
  width: 360px;
  max-height: 420px;
  overflow-y: auto;
  background: var(--bg);
  border: 1px solid var(--border);
  border-radius: 8px;
  display: none;
}
.search-results.open { display: block; }
.search-results a { display: block; padding: 8px 12px; color: var(--text); }
.search-results a:hover { background: var(--accent-soft); text-decoration: none; }
.search-results small { display: block; color: var(--text-muted); }
.language-select, .theme-toggle, .menu-toggle {
  background: var(--bg-soft);
  color: var(--text);
  border: 1px solid var(--border);
  border-radius: 6px;
  padding: 4px 8px;
  cursor: pointer;
}
.menu-toggle { display: none; }
.social-link { color: var(--text-muted); font-size: 13px; }
[data-theme="dark"] .sun-icon, [data-theme="light"] .moon-icon { display: none; }

/* Sidebar */
.sidebar {
  position: fixed;
  top: var(--navbar-height);
  bottom: 0; left: 0;
  width: var(--sidebar-width);
  padding: 24px 20px;
  overflow-y: auto;
  background: var(--bg-sidebar);
  border-right: 1px solid var(--border);
}
.sidebar-group { margin-bottom: 20px; }
.sidebar-group-title { margin: 0 0 6px; font-weight: 600; font-size: 14px; }
.sidebar ul { list-style: none; margin: 0; padding: 0; }
.sidebar li ul { padding-left: 14px; }
.sidebar a { display: block; padding: 3px 0; color: var(--text-muted); font-size: 14px; }
.sidebar a.active { color: var(--accent); font-weight: 500; }
.sidebar .dir-label { display: block; padding: 3px 0; font-size: 14px; font-weight: 500; }
.sidebar-overlay { display: none; }

/* Content */
.content {
  margin-left: var(--sidebar-width);
  padding: calc(var(--navbar-height) + 32px) 48px 64px;
}
.page-content { max-width: var(--content-max-width); margin: 0 auto; }
.page-content h1 { font-size: 32px; line-height: 1.25; }
.page-content h2 { border-top: 1px solid var(--border); padding-top: 24px; margin-top: 40px; }
.page-content code { background: var(--code-bg); padding: 2px 6px; border-radius: 4px; font-size: 0.9em; }
.page-content pre { background: var(--code-bg); padding: 16px; border-radius: 8px; overflow-x: auto; }
.page-content pre code { background: none; padding: 0; }
.page-content table { border-collapse: collapse; width: 100%; }
.page-content th, .page-content td { border: 1px solid var(--border); padding: 8px 12px; }
.page-content img { max-width: 100%; }
.page-content blockquote { margin: 16px 0; padding: 4px 16px; border-left: 3px solid var(--accent); color: var(--text-muted); }

/* Wowhead links before the widget decorates them */
a.wowhead-link { font-weight: 500; }

@media (max-width: 900px) {
  .menu-toggle { display: inline-block; }
  .navbar-search, .navbar-links { display: none; }
  .sidebar { transform: translateX(-100%); transition: transform 0.2s; z-index: 30; }
  .sidebar.open { transform: none; }
  .sidebar-overlay.open { display: block; position: fixed; inset: 0; background: rgba(0,0,0,0.4); z-index: 25; }
  .content { margin-left: 0; padding: calc(var(--navbar-height) + 24px) 20px 48px; }
}
`

// jsContent is the browser side of link localization: it keeps every
// Wowhead link on the reader's language, polls for the tooltip widget and
// talks to the preview server when live reload is enabled.
const jsContent = `(function () {
  'use strict';

  var STORAGE_KEY = 'wowhead-language';
  var THEME_KEY = 'wowplaybook-theme';
  var LANGUAGE_EVENT = 'wowhead-language-change';
  var LOCALES = { cn: 'cn', en: 'www', tw: 'tw' };
  var DEFAULT_LANGUAGE = 'cn';
  var POLL_INTERVAL = 100;

  var root = document.documentElement;
  var base = root.getAttribute('data-base') || '/';
  var live = null;

  // ---------- Preference ----------

  function storedLanguage() {
    try {
      var v = window.localStorage.getItem(STORAGE_KEY);
      return LOCALES[v] ? v : DEFAULT_LANGUAGE;
    } catch (e) {
      return DEFAULT_LANGUAGE;
    }
  }

  function storeLanguage(lang) {
    try {
      window.localStorage.setItem(STORAGE_KEY, lang);
    } catch (e) {}
  }

  function preferredLocale() {
    return LOCALES[storedLanguage()];
  }

  // ---------- Link sync ----------

  function setDomain(data, locale) {
    return data.replace(/&domain=[^&]*/g, '') + '&domain=' + locale;
  }

  function syncLinks() {
    var locale = preferredLocale();
    var links = document.querySelectorAll('a.wowhead-link');
    for (var i = 0; i < links.length; i++) {
      var data = links[i].getAttribute('data-wowhead') || '';
      var next = setDomain(data, locale);
      if (next !== data) {
        links[i].setAttribute('data-wowhead', next);
      }
    }
  }

  // ---------- Widget refresh ----------

  var pendingRefresh = null;

  function widgetReady() {
    return !!(window.$WowheadPower && typeof window.$WowheadPower.refreshLinks === 'function');
  }

  function requestTooltipRefresh() {
    if (pendingRefresh) {
      clearInterval(pendingRefresh);
    }
    var tick = function () {
      if (!widgetReady()) {
        return false;
      }
      clearInterval(pendingRefresh);
      pendingRefresh = null;
      window.$WowheadPower.refreshLinks();
      return true;
    };
    if (!tick()) {
      pendingRefresh = setInterval(tick, POLL_INTERVAL);
    }
  }

  function resync() {
    syncLinks();
    requestTooltipRefresh();
  }

  function containsLink(node) {
    if (node.nodeType !== 1) {
      return false;
    }
    if (node.matches && node.matches('a.wowhead-link')) {
      return true;
    }
    return !!(node.querySelector && node.querySelector('a.wowhead-link'));
  }

  function observeInsertions() {
    if (!window.MutationObserver) {
      return;
    }
    var observer = new MutationObserver(function (mutations) {
      for (var i = 0; i < mutations.length; i++) {
        var added = mutations[i].addedNodes;
        for (var j = 0; j < added.length; j++) {
          if (containsLink(added[j])) {
            resync();
            return;
          }
        }
      }
    });
    observer.observe(document.body, { childList: true, subtree: true });
  }

  // ---------- Language switch ----------

  function applyLanguage(lang, fromServer) {
    if (!LOCALES[lang]) {
      return;
    }
    storeLanguage(lang);
    var select = document.getElementById('language-select');
    if (select) {
      select.value = lang;
    }
    window.dispatchEvent(new CustomEvent(LANGUAGE_EVENT, { detail: { language: lang } }));
    if (live && !fromServer) {
      live.send(JSON.stringify({ type: 'language-change', language: lang }));
      fetch('/api/language', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ language: lang })
      }).catch(function () {});
    }
  }

  function initLanguageSelect() {
    var select = document.getElementById('language-select');
    if (!select) {
      return;
    }
    select.value = storedLanguage();
    select.addEventListener('change', function () {
      applyLanguage(select.value, false);
    });
    window.addEventListener(LANGUAGE_EVENT, resync);
  }

  // ---------- Live preview ----------

  function connectLive() {
    if (!window.wowplaybookLive || !window.WebSocket) {
      return;
    }
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + '/ws');
    ws.onopen = function () {
      live = ws;
      var wait = setInterval(function () {
        if (widgetReady() && ws.readyState === 1) {
          clearInterval(wait);
          ws.send(JSON.stringify({ type: 'widget-ready' }));
        }
      }, POLL_INTERVAL);
    };
    ws.onmessage = function (ev) {
      var msg;
      try {
        msg = JSON.parse(ev.data);
      } catch (e) {
        return;
      }
      switch (msg.type) {
        case 'refresh-links':
          resync();
          break;
        case 'reload':
          location.reload();
          break;
        case 'language-change':
          applyLanguage(msg.language, true);
          break;
      }
    };
    ws.onclose = function () {
      live = null;
      setTimeout(connectLive, 2000);
    };
  }

  // ---------- Theme, sidebar and search ----------

  function initTheme() {
    var saved = null;
    try {
      saved = window.localStorage.getItem(THEME_KEY);
    } catch (e) {}
    if (saved) {
      root.setAttribute('data-theme', saved);
    }
    var toggle = document.getElementById('theme-toggle');
    if (!toggle) {
      return;
    }
    toggle.addEventListener('click', function () {
      var next = root.getAttribute('data-theme') === 'dark' ? 'light' : 'dark';
      root.setAttribute('data-theme', next);
      try {
        window.localStorage.setItem(THEME_KEY, next);
      } catch (e) {}
    });
  }

  function initSidebar() {
    var toggle = document.getElementById('menu-toggle');
    var sidebar = document.getElementById('sidebar');
    var overlay = document.getElementById('sidebar-overlay');
    if (!toggle || !sidebar || !overlay) {
      return;
    }
    var flip = function () {
      sidebar.classList.toggle('open');
      overlay.classList.toggle('open');
    };
    toggle.addEventListener('click', flip);
    overlay.addEventListener('click', flip);
  }

  function initSearch() {
    var input = document.getElementById('search-input');
    var results = document.getElementById('search-results');
    if (!input || !results) {
      return;
    }
    var index = null;
    var load = function () {
      if (index) {
        return Promise.resolve(index);
      }
      return fetch(base + 'search-index.json')
        .then(function (r) { return r.json(); })
        .then(function (data) { index = data || []; return index; });
    };
    input.addEventListener('input', function () {
      var q = input.value.trim().toLowerCase();
      if (!q) {
        results.classList.remove('open');
        results.innerHTML = '';
        return;
      }
      load().then(function (entries) {
        results.innerHTML = '';
        var hits = entries.filter(function (e) {
          return (e.title + ' ' + e.content).toLowerCase().indexOf(q) !== -1;
        }).slice(0, 10);
        hits.forEach(function (e) {
          var a = document.createElement('a');
          a.href = e.path;
          a.textContent = e.title;
          var small = document.createElement('small');
          small.textContent = e.summary || '';
          a.appendChild(small);
          results.appendChild(a);
        });
        results.classList.toggle('open', hits.length > 0);
      });
    });
  }

  // ---------- Boot ----------

  function boot() {
    initTheme();
    initSidebar();
    initSearch();
    initLanguageSelect();
    resync();
    observeInsertions();
    connectLive();
  }

  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', boot);
  } else {
    boot();
  }
})();
`
